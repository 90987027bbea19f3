// ABOUTME: Tool registrations: argument structs, schema annotations and bindings
// ABOUTME: Fills defaults for omitted arguments before calling the tool service

package mcp

import (
	"context"
	"time"

	"github.com/enapter/mcp-server/internal/models"
	"github.com/enapter/mcp-server/internal/tools"
)

// Tool names.
const (
	ToolSearchSites            = "search_sites"
	ToolGetSiteContext         = "get_site_context"
	ToolSearchDevices          = "search_devices"
	ToolGetDeviceContext       = "get_device_context"
	ToolReadBlueprint          = "read_blueprint"
	ToolGetHistoricalTelemetry = "get_historical_telemetry"
	ToolGetLatestTelemetry     = "get_latest_telemetry"
)

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{
	ToolSearchSites,
	ToolGetSiteContext,
	ToolSearchDevices,
	ToolGetDeviceContext,
	ToolReadBlueprint,
	ToolGetHistoricalTelemetry,
	ToolGetLatestTelemetry,
}

// listResult wraps list outputs so structured content is an object.
type listResult[T any] struct {
	Result []T `json:"result"`
}

func list[T any](items []T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return listResult[T]{Result: items}, nil
}

func single[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

type searchSitesArgs struct {
	NamePattern     *string `json:"name_pattern,omitempty" jsonschema:"Regular expression searched for anywhere in the site name"`
	TimezonePattern *string `json:"timezone_pattern,omitempty" jsonschema:"Regular expression searched for anywhere in the site timezone"`
	Offset          *int    `json:"offset,omitempty" jsonschema:"Number of matching sites to skip"`
	Limit           *int    `json:"limit,omitempty" jsonschema:"Maximum number of sites to return"`
}

type siteArgs struct {
	SiteID string `json:"site_id" jsonschema:"Site ID"`
}

type searchDevicesArgs struct {
	SiteID      *string `json:"site_id,omitempty" jsonschema:"Only return devices of this site"`
	Type        *string `json:"type,omitempty" jsonschema:"Only return devices of this type"`
	NamePattern *string `json:"name_pattern,omitempty" jsonschema:"Regular expression searched for anywhere in the device name"`
	Offset      *int    `json:"offset,omitempty" jsonschema:"Number of matching devices to skip"`
	Limit       *int    `json:"limit,omitempty" jsonschema:"Maximum number of devices to return"`
}

type deviceArgs struct {
	DeviceID string `json:"device_id" jsonschema:"Device ID"`
}

type readBlueprintArgs struct {
	DeviceID    string  `json:"device_id" jsonschema:"Device ID"`
	Section     string  `json:"section" jsonschema:"Blueprint section to read"`
	NamePattern *string `json:"name_pattern,omitempty" jsonschema:"Regular expression searched for anywhere in the declaration name"`
	Offset      *int    `json:"offset,omitempty" jsonschema:"Number of matching declarations to skip"`
	Limit       *int    `json:"limit,omitempty" jsonschema:"Maximum number of declarations to return"`
}

type historicalTelemetryArgs struct {
	DeviceID    string   `json:"device_id" jsonschema:"Device ID"`
	Attributes  []string `json:"attributes" jsonschema:"Telemetry attribute names declared in the device blueprint"`
	TimeFrom    string   `json:"time_from" jsonschema:"Start of the time range (RFC 3339)"`
	TimeTo      string   `json:"time_to" jsonschema:"End of the time range (RFC 3339)"`
	Granularity *int     `json:"granularity,omitempty" jsonschema:"Aggregation interval in seconds"`
}

type latestTelemetryArgs struct {
	DeviceID   string   `json:"device_id" jsonschema:"Device ID"`
	Attributes []string `json:"attributes" jsonschema:"Telemetry attribute names declared in the device blueprint"`
}

func paginationDefaults() []schemaOption {
	return []schemaOption{
		withDefault("name_pattern", tools.DefaultPattern),
		withDefault("offset", tools.DefaultOffset),
		withDefault("limit", tools.DefaultLimit),
	}
}

func (s *Server) registerTools() error {
	svc := s.service

	if err := addTool(s, ToolSearchSites,
		"Search sites the caller has access to by name and timezone. Results are sorted by site ID and paginated.",
		func(ctx context.Context, a searchSitesArgs) (any, error) {
			return list(svc.SearchSites(ctx, tools.SearchSitesParams{
				NamePattern:     value(a.NamePattern, tools.DefaultPattern),
				TimezonePattern: value(a.TimezonePattern, tools.DefaultPattern),
				Page:            page(a.Offset, a.Limit),
			}))
		},
		append(paginationDefaults(), withDefault("timezone_pattern", tools.DefaultPattern))...,
	); err != nil {
		return err
	}

	if err := addTool(s, ToolGetSiteContext,
		"Get a site with its gateway, gateway connectivity and the number of total and online devices.",
		func(ctx context.Context, a siteArgs) (any, error) {
			return single(svc.GetSiteContext(ctx, a.SiteID))
		},
	); err != nil {
		return err
	}

	if err := addTool(s, ToolSearchDevices,
		"Search devices by site, type and name. Results are sorted by device ID and paginated.",
		func(ctx context.Context, a searchDevicesArgs) (any, error) {
			params := tools.SearchDevicesParams{
				SiteID:      a.SiteID,
				NamePattern: value(a.NamePattern, tools.DefaultPattern),
				Page:        page(a.Offset, a.Limit),
			}
			if a.Type != nil {
				deviceType, err := models.ParseDeviceType(*a.Type)
				if err != nil {
					return nil, err
				}
				params.Type = &deviceType
			}
			return list(svc.SearchDevices(ctx, params))
		},
		append(paginationDefaults(), withEnum("type", models.DeviceTypes))...,
	); err != nil {
		return err
	}

	if err := addTool(s, ToolGetDeviceContext,
		"Get a device with its connectivity status, declared properties, latest declared telemetry and a blueprint summary.",
		func(ctx context.Context, a deviceArgs) (any, error) {
			return single(svc.GetDeviceContext(ctx, a.DeviceID))
		},
	); err != nil {
		return err
	}

	if err := addTool(s, ToolReadBlueprint,
		"Read the declared properties, telemetry attributes or alerts of a device blueprint. Results are sorted by name and paginated.",
		func(ctx context.Context, a readBlueprintArgs) (any, error) {
			section, err := models.ParseBlueprintSection(a.Section)
			if err != nil {
				return nil, err
			}
			return list(svc.ReadBlueprint(ctx, tools.ReadBlueprintParams{
				DeviceID:    a.DeviceID,
				Section:     section,
				NamePattern: value(a.NamePattern, tools.DefaultPattern),
				Page:        page(a.Offset, a.Limit),
			}))
		},
		append(paginationDefaults(), withEnum("section", models.BlueprintSections))...,
	); err != nil {
		return err
	}

	if err := addTool(s, ToolGetHistoricalTelemetry,
		"Get historical telemetry of a device aggregated into buckets of the given granularity.",
		func(ctx context.Context, a historicalTelemetryArgs) (any, error) {
			from, err := parseTime("time_from", a.TimeFrom)
			if err != nil {
				return nil, err
			}
			to, err := parseTime("time_to", a.TimeTo)
			if err != nil {
				return nil, err
			}
			return single(svc.GetHistoricalTelemetry(ctx, tools.HistoricalTelemetryParams{
				DeviceID:    a.DeviceID,
				Attributes:  a.Attributes,
				From:        from,
				To:          to,
				Granularity: value(a.Granularity, tools.DefaultGranularity),
			}))
		},
		withDefault("granularity", tools.DefaultGranularity),
		withFormat("time_from", "date-time"),
		withFormat("time_to", "date-time"),
	); err != nil {
		return err
	}

	return addTool(s, ToolGetLatestTelemetry,
		"Get the latest values of telemetry attributes of a device.",
		func(ctx context.Context, a latestTelemetryArgs) (any, error) {
			return single(svc.GetLatestTelemetry(ctx, a.DeviceID, a.Attributes))
		},
	)
}

func value[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func page(offset, limit *int) tools.Page {
	return tools.Page{
		Offset: value(offset, tools.DefaultPage.Offset),
		Limit:  value(limit, tools.DefaultPage.Limit),
	}
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, models.Invalid(field, s, "must be an RFC 3339 date-time")
	}
	return t, nil
}
