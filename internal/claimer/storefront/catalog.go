package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FreeGames fetches the current promotional feed for the configured locale
// and country. Entries come back in feed order, unfiltered; deciding what
// is free and unclaimed is the caller's job.
func (c *Client) FreeGames(ctx context.Context, bearer string) ([]CatalogElement, error) {
	q := url.Values{
		"locale":         {c.locale},
		"country":        {c.country},
		"allowCountries": {c.country},
	}

	endpoint := c.catalogURL + "/api/content/assets/v2/freegames?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(ctx, req, bearer)
	if err != nil {
		return nil, err
	}

	var feed catalogResponse
	if err := decodeJSON(resp, &feed, http.StatusOK); err != nil {
		return nil, err
	}
	return feed.Data.Catalog.SearchStore.Elements, nil
}

// StorePageURL builds the canonical store page for a catalog slug.
func (c *Client) StorePageURL(slug string) string {
	return fmt.Sprintf("%s/store/%s/p/%s", c.identityURL, c.locale, slug)
}
