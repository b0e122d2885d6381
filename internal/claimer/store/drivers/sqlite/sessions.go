package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/pkg/cryptox"
)

// sessionsRepo stores the single account credential. Tokens are sealed
// with the master key before they touch disk.
type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) Get(ctx context.Context) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, account_id, expires_at
		FROM sessions WHERE id = 1`)

	var (
		sealedAccess  string
		sealedRefresh string
		cred          domain.Credential
	)
	if err := row.Scan(&sealedAccess, &sealedRefresh, &cred.AccountID, &cred.ExpiresAt); err != nil {
		return domain.Credential{}, mapNotFound(err)
	}

	access, err := cryptox.OpenString(sealedAccess)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to unseal access token: %w", err)
	}
	refresh, err := cryptox.OpenString(sealedRefresh)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to unseal refresh token: %w", err)
	}

	cred.AccessToken = access
	cred.RefreshToken = refresh
	return cred, nil
}

func (r *sessionsRepo) Put(ctx context.Context, cred domain.Credential) error {
	sealedAccess, err := cryptox.SealString(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	sealedRefresh, err := cryptox.SealString(cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to seal refresh token: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, access_token, refresh_token, account_id, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			account_id    = excluded.account_id,
			expires_at    = excluded.expires_at,
			updated_at    = excluded.updated_at`,
		sealedAccess, sealedRefresh, cred.AccountID, cred.ExpiresAt.UTC(), time.Now().UTC())
	return err
}

func (r *sessionsRepo) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = 1`)
	return err
}
