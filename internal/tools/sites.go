// ABOUTME: Site tools: search_sites and get_site_context
// ABOUTME: Site context counts devices and locates the site's single gateway

package tools

import (
	"context"
	"fmt"

	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/models"
)

// SearchSitesParams are the arguments of search_sites.
type SearchSitesParams struct {
	NamePattern     string
	TimezonePattern string
	Page
}

// SearchSites lists the caller's sites whose name and timezone both match.
func (s *Service) SearchSites(ctx context.Context, p SearchSitesParams) ([]models.Site, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	nameRe, err := compilePattern("name_pattern", p.NamePattern)
	if err != nil {
		return nil, err
	}
	timezoneRe, err := compilePattern("timezone_pattern", p.TimezonePattern)
	if err != nil {
		return nil, err
	}

	return withClient(ctx, s, func(api API) ([]models.Site, error) {
		var sites []models.Site
		for site, err := range api.ListSites(ctx) {
			if err != nil {
				return nil, fmt.Errorf("list sites: %w", err)
			}
			if nameRe.MatchString(site.Name) && timezoneRe.MatchString(site.Timezone) {
				sites = append(sites, models.SiteFromUpstream(site))
			}
		}

		sortBy(sites, func(site models.Site) string { return site.ID })
		return paginate(sites, p.Page), nil
	})
}

// GetSiteContext summarizes a site with its gateway and device counts.
func (s *Service) GetSiteContext(ctx context.Context, siteID string) (models.SiteContext, error) {
	return withClient(ctx, s, func(api API) (models.SiteContext, error) {
		site, err := api.GetSite(ctx, siteID)
		if err != nil {
			return models.SiteContext{}, fmt.Errorf("get site %s: %w", siteID, err)
		}

		sc := models.SiteContext{Site: models.SiteFromUpstream(site)}
		opts := enapter.ListDevicesOptions{
			SiteID: siteID,
			Expand: enapter.Expand{Connectivity: true},
		}
		for device, err := range api.ListDevices(ctx, opts) {
			if err != nil {
				return models.SiteContext{}, fmt.Errorf("list devices of site %s: %w", siteID, err)
			}

			status, err := models.ConnectivityFromUpstream(device.Connectivity)
			if err != nil {
				return models.SiteContext{}, err
			}
			online := status == models.ConnectivityOnline

			sc.DevicesTotal++
			if online {
				sc.DevicesOnline++
			}

			if device.Type == string(models.DeviceTypeGateway) {
				if sc.GatewayID != nil {
					return models.SiteContext{}, fmt.Errorf("%w: site %s has gateways %s and %s",
						ErrContract, siteID, *sc.GatewayID, device.ID)
				}
				sc.GatewayID = &device.ID
				sc.GatewayOnline = online
			}
		}

		sc.Timestamp = s.now()
		return sc, nil
	})
}

