// ABOUTME: Device tools: search_devices, get_device_context and read_blueprint
// ABOUTME: Device context reads the manifest once and restricts output to declared names

package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/models"
)

// SearchDevicesParams are the arguments of search_devices. Nil SiteID and
// Type mean no restriction.
type SearchDevicesParams struct {
	SiteID      *string
	Type        *models.DeviceType
	NamePattern string
	Page
}

// SearchDevices lists devices, optionally within one site and of one type,
// whose name matches NamePattern.
func (s *Service) SearchDevices(ctx context.Context, p SearchDevicesParams) ([]models.Device, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	nameRe, err := compilePattern("name_pattern", p.NamePattern)
	if err != nil {
		return nil, err
	}

	var opts enapter.ListDevicesOptions
	if p.SiteID != nil {
		opts.SiteID = *p.SiteID
	}

	return withClient(ctx, s, func(api API) ([]models.Device, error) {
		var devices []models.Device
		for upstream, err := range api.ListDevices(ctx, opts) {
			if err != nil {
				return nil, fmt.Errorf("list devices: %w", err)
			}

			device, err := models.DeviceFromUpstream(upstream)
			if err != nil {
				return nil, fmt.Errorf("device %s: %w", upstream.ID, err)
			}
			if p.Type != nil && device.Type != *p.Type {
				continue
			}
			if !nameRe.MatchString(device.Name) {
				continue
			}
			devices = append(devices, device)
		}

		sortBy(devices, func(d models.Device) string { return d.ID })
		return paginate(devices, p.Page), nil
	})
}

// GetDeviceContext fetches the device with manifest, connectivity and
// properties in one request, then reads the latest values of the telemetry
// attributes its manifest declares.
func (s *Service) GetDeviceContext(ctx context.Context, deviceID string) (models.DeviceContext, error) {
	return withClient(ctx, s, func(api API) (models.DeviceContext, error) {
		upstream, err := api.GetDevice(ctx, deviceID, enapter.Expand{
			Connectivity: true,
			Manifest:     true,
			Properties:   true,
		})
		if err != nil {
			return models.DeviceContext{}, fmt.Errorf("get device %s: %w", deviceID, err)
		}

		device, err := models.DeviceFromUpstream(upstream)
		if err != nil {
			return models.DeviceContext{}, fmt.Errorf("device %s: %w", deviceID, err)
		}
		status, err := models.ConnectivityFromUpstream(upstream.Connectivity)
		if err != nil {
			return models.DeviceContext{}, fmt.Errorf("device %s: %w", deviceID, err)
		}

		manifest := upstream.Manifest
		latest := map[string]any{}
		if attributes := models.DeclaredNames(manifest, models.SectionTelemetry); len(attributes) > 0 {
			telemetry, err := api.LatestTelemetry(ctx, map[string][]string{device.ID: attributes})
			if err != nil {
				return models.DeviceContext{}, fmt.Errorf("latest telemetry of device %s: %w", deviceID, err)
			}
			latest = models.LatestValues(telemetry, device.ID, attributes)
		}

		return models.DeviceContext{
			Timestamp:          s.now(),
			Device:             device,
			ConnectivityStatus: status,
			Properties:         models.DeclaredProperties(manifest, upstream.Properties),
			LatestTelemetry:    latest,
			BlueprintSummary:   models.SummarizeManifest(manifest),
		}, nil
	})
}

// ReadBlueprintParams are the arguments of read_blueprint.
type ReadBlueprintParams struct {
	DeviceID    string
	Section     models.BlueprintSection
	NamePattern string
	Page
}

// ReadBlueprint returns the typed declarations of one manifest section.
func (s *Service) ReadBlueprint(ctx context.Context, p ReadBlueprintParams) ([]models.Declaration, error) {
	if !slices.Contains(models.BlueprintSections, p.Section) {
		return nil, fmt.Errorf("%w: unknown blueprint section %q", ErrContract, p.Section)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	nameRe, err := compilePattern("name_pattern", p.NamePattern)
	if err != nil {
		return nil, err
	}

	return withClient(ctx, s, func(api API) ([]models.Declaration, error) {
		upstream, err := api.GetDevice(ctx, p.DeviceID, enapter.Expand{Manifest: true})
		if err != nil {
			return nil, fmt.Errorf("get device %s: %w", p.DeviceID, err)
		}

		declarations, err := models.ReadSection(upstream.Manifest, p.Section)
		if err != nil {
			return nil, fmt.Errorf("blueprint of device %s: %w", p.DeviceID, err)
		}

		matched := slices.DeleteFunc(declarations, func(d models.Declaration) bool {
			return !nameRe.MatchString(d.DeclarationName())
		})
		sortBy(matched, models.Declaration.DeclarationName)
		return paginate(matched, p.Page), nil
	})
}
