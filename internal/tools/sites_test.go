// ABOUTME: Tests for search_sites and get_site_context
// ABOUTME: Covers pattern search, ordering, pagination and gateway detection

package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/models"
)

func siteIDs(sites []models.Site) []string {
	ids := make([]string, len(sites))
	for i, s := range sites {
		ids[i] = s.ID
	}
	return ids
}

func searchSites(name, timezone string, offset, limit int) SearchSitesParams {
	return SearchSitesParams{NamePattern: name, TimezonePattern: timezone, Page: Page{Offset: offset, Limit: limit}}
}

func TestSearchSites(t *testing.T) {
	api := &fakeAPI{sites: []enapter.Site{
		site("site-002", "Test Site", "Europe/London"),
		site("site-001", "Production Site", "America/New_York"),
	}}
	h := newHarness(t, api)
	ctx := context.Background()

	t.Run("defaults return everything sorted", func(t *testing.T) {
		sites, err := h.service.SearchSites(ctx, searchSites(DefaultPattern, DefaultPattern, 0, DefaultLimit))
		require.NoError(t, err)
		assert.Equal(t, []models.Site{
			{ID: "site-001", Name: "Production Site", Timezone: "America/New_York"},
			{ID: "site-002", Name: "Test Site", Timezone: "Europe/London"},
		}, sites)
	})

	t.Run("name pattern searches anywhere", func(t *testing.T) {
		sites, err := h.service.SearchSites(ctx, searchSites("Production", DefaultPattern, 0, DefaultLimit))
		require.NoError(t, err)
		assert.Equal(t, []string{"site-001"}, siteIDs(sites))
	})

	t.Run("timezone pattern", func(t *testing.T) {
		sites, err := h.service.SearchSites(ctx, searchSites(DefaultPattern, "Europe", 0, DefaultLimit))
		require.NoError(t, err)
		assert.Equal(t, []string{"site-002"}, siteIDs(sites))
	})

	t.Run("both patterns must match", func(t *testing.T) {
		sites, err := h.service.SearchSites(ctx, searchSites("Production", "Europe", 0, DefaultLimit))
		require.NoError(t, err)
		assert.Empty(t, sites)
		assert.NotNil(t, sites)
	})

	t.Run("malformed pattern", func(t *testing.T) {
		_, err := h.service.SearchSites(ctx, searchSites("(", DefaultPattern, 0, DefaultLimit))
		require.ErrorIs(t, err, models.ErrValidation)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name_pattern", verr.Field)
	})
}

func TestSearchSites_Pagination(t *testing.T) {
	var sites []enapter.Site
	for _, i := range []int{4, 2, 5, 1, 3} {
		sites = append(sites, site(fmt.Sprintf("site-%03d", i), fmt.Sprintf("Site %d", i), "UTC"))
	}
	h := newHarness(t, &fakeAPI{sites: sites})
	ctx := context.Background()

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{"first page", 0, 2, []string{"site-001", "site-002"}},
		{"second page", 2, 2, []string{"site-003", "site-004"}},
		{"last partial page", 4, 2, []string{"site-005"}},
		{"offset past end", 10, 2, []string{}},
		{"zero limit", 0, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.service.SearchSites(ctx, searchSites(DefaultPattern, DefaultPattern, tt.offset, tt.limit))
			require.NoError(t, err)
			assert.Equal(t, tt.want, siteIDs(got))
		})
	}

	for _, p := range []Page{{Offset: -1, Limit: 2}, {Offset: 0, Limit: -1}} {
		_, err := h.service.SearchSites(ctx, searchSites(DefaultPattern, DefaultPattern, p.Offset, p.Limit))
		assert.ErrorIs(t, err, models.ErrValidation, "page %+v", p)
	}
}

func TestSearchSites_Errors(t *testing.T) {
	t.Run("upstream stream error", func(t *testing.T) {
		boom := &enapter.Error{StatusCode: 500, Message: "boom"}
		h := newHarness(t, &fakeAPI{sites: []enapter.Site{site("s", "n", "UTC")}, listErr: boom})

		_, err := h.service.SearchSites(context.Background(), searchSites(DefaultPattern, DefaultPattern, 0, 20))
		var apiErr *enapter.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 500, apiErr.StatusCode)
	})

	t.Run("auth failure opens no client", func(t *testing.T) {
		h := newHarness(t, &fakeAPI{})
		h.authErr = fmt.Errorf("%w: no credentials", auth.ErrUnauthorized)

		_, err := h.service.SearchSites(context.Background(), searchSites(DefaultPattern, DefaultPattern, 0, 20))
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
		assert.Zero(t, h.opened)
	})

	t.Run("validation failure opens no client", func(t *testing.T) {
		h := newHarness(t, &fakeAPI{})
		_, err := h.service.SearchSites(context.Background(), searchSites(DefaultPattern, "[", 0, 20))
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Zero(t, h.opened)
	})
}

func TestSearchSites_ForwardsCredentials(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	_, err := h.service.SearchSites(context.Background(), searchSites(DefaultPattern, DefaultPattern, 0, 20))
	require.NoError(t, err)
	assert.Equal(t, []enapter.Credentials{{Token: "test-token"}}, h.creds)
}

func TestGetSiteContext(t *testing.T) {
	api := &fakeAPI{
		sites: []enapter.Site{site("site-123", "Test Site", "UTC")},
		devices: []enapter.Device{
			withConnectivity(device("device-gateway", "Gateway", "site-123", "GATEWAY"), string(models.ConnectivityOnline)),
			withConnectivity(device("device-001", "Device 1", "site-123", "NATIVE"), string(models.ConnectivityOnline)),
			withConnectivity(device("device-002", "Device 2", "site-123", "NATIVE"), string(models.ConnectivityOffline)),
			withConnectivity(device("device-other", "Elsewhere", "site-999", "NATIVE"), string(models.ConnectivityOnline)),
		},
	}
	h := newHarness(t, api)

	sc, err := h.service.GetSiteContext(context.Background(), "site-123")
	require.NoError(t, err)

	assert.Equal(t, models.Site{ID: "site-123", Name: "Test Site", Timezone: "UTC"}, sc.Site)
	require.NotNil(t, sc.GatewayID)
	assert.Equal(t, "device-gateway", *sc.GatewayID)
	assert.True(t, sc.GatewayOnline)
	assert.Equal(t, 3, sc.DevicesTotal)
	assert.Equal(t, 2, sc.DevicesOnline)
	assert.Equal(t, fixedNow, sc.Timestamp)

	require.Len(t, api.listDeviceOpts, 1)
	assert.Equal(t, enapter.ListDevicesOptions{SiteID: "site-123", Expand: enapter.Expand{Connectivity: true}}, api.listDeviceOpts[0])
}

func TestGetSiteContext_Gateways(t *testing.T) {
	t.Run("no gateway", func(t *testing.T) {
		h := newHarness(t, &fakeAPI{
			sites:   []enapter.Site{site("site-1", "S", "UTC")},
			devices: []enapter.Device{device("d1", "D1", "site-1", "NATIVE")},
		})
		sc, err := h.service.GetSiteContext(context.Background(), "site-1")
		require.NoError(t, err)
		assert.Nil(t, sc.GatewayID)
		assert.False(t, sc.GatewayOnline)
		assert.Equal(t, 1, sc.DevicesTotal)
		assert.Equal(t, 0, sc.DevicesOnline, "missing connectivity is not online")
	})

	t.Run("offline gateway", func(t *testing.T) {
		h := newHarness(t, &fakeAPI{
			sites:   []enapter.Site{site("site-1", "S", "UTC")},
			devices: []enapter.Device{withConnectivity(device("gw", "GW", "site-1", "GATEWAY"), string(models.ConnectivityOffline))},
		})
		sc, err := h.service.GetSiteContext(context.Background(), "site-1")
		require.NoError(t, err)
		require.NotNil(t, sc.GatewayID)
		assert.False(t, sc.GatewayOnline)
	})

	t.Run("several gateways", func(t *testing.T) {
		h := newHarness(t, &fakeAPI{
			sites: []enapter.Site{site("site-1", "S", "UTC")},
			devices: []enapter.Device{
				device("gw-1", "GW1", "site-1", "GATEWAY"),
				device("gw-2", "GW2", "site-1", "GATEWAY"),
			},
		})
		_, err := h.service.GetSiteContext(context.Background(), "site-1")
		assert.ErrorIs(t, err, ErrContract)
	})
}

func TestGetSiteContext_NotFound(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	_, err := h.service.GetSiteContext(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, enapter.IsNotFound(err))
	assert.False(t, errors.Is(err, models.ErrValidation))
}
