package domain

// LoginStatus enumerates the outcomes of a login attempt.
type LoginStatus int

const (
	// LoginFailed means the credential exchange was rejected or broke at
	// the transport layer. No tokens were issued.
	LoginFailed LoginStatus = iota

	// LoginSuccess means tokens were issued and persisted.
	LoginSuccess

	// LoginTwoFactorRequired means the identity provider demands a
	// step-up code before issuing tokens. The session is suspended until
	// CompleteTwoFactor resolves it.
	LoginTwoFactorRequired
)

// LoginResult is the tagged outcome of a login attempt. Callers must branch
// on Status; TwoFactorMethod is only meaningful for LoginTwoFactorRequired.
type LoginResult struct {
	Status          LoginStatus
	TwoFactorMethod string
}

func LoginOK() LoginResult {
	return LoginResult{Status: LoginSuccess}
}

func LoginFailure() LoginResult {
	return LoginResult{Status: LoginFailed}
}

func LoginStepUp(method string) LoginResult {
	return LoginResult{Status: LoginTwoFactorRequired, TwoFactorMethod: method}
}
