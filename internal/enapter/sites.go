// ABOUTME: Site endpoints of the Enapter HTTP API
// ABOUTME: Lists sites visible to the caller and fetches a single site

package enapter

import (
	"context"
	"iter"
	"net/url"
)

// Site is the upstream site representation.
type Site struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Version  string `json:"version,omitempty"`
}

// ListSites streams every site the caller can access.
func (c *Client) ListSites(ctx context.Context) iter.Seq2[Site, error] {
	return list[Site](ctx, c, "/v3/sites", nil, "sites")
}

// GetSite fetches a site by ID.
func (c *Client) GetSite(ctx context.Context, siteID string) (Site, error) {
	var resp struct {
		Site Site `json:"site"`
	}
	if err := c.getJSON(ctx, "/v3/sites/"+url.PathEscape(siteID), nil, &resp); err != nil {
		return Site{}, err
	}
	return resp.Site, nil
}
