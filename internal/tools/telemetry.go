// ABOUTME: Telemetry tools: get_historical_telemetry and get_latest_telemetry
// ABOUTME: Historical data keeps the upstream timestamp axis and bucket size as-is

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/enapter/mcp-server/internal/enapter"
	"github.com/enapter/mcp-server/internal/models"
)

// HistoricalTelemetryParams are the arguments of get_historical_telemetry.
// Granularity is the aggregation bucket in seconds.
type HistoricalTelemetryParams struct {
	DeviceID    string
	Attributes  []string
	From        time.Time
	To          time.Time
	Granularity int
}

// GetHistoricalTelemetry issues a single wide-timeseries query for one device.
// Range validation is left to the upstream API.
func (s *Service) GetHistoricalTelemetry(ctx context.Context, p HistoricalTelemetryParams) (models.HistoricalTelemetry, error) {
	return withClient(ctx, s, func(api API) (models.HistoricalTelemetry, error) {
		ts, err := api.WideTimeseries(ctx, enapter.WideTimeseriesQuery{
			From:        p.From,
			To:          p.To,
			Granularity: int64(p.Granularity),
			Selectors: []enapter.Selector{
				{Device: p.DeviceID, Attributes: p.Attributes},
			},
		})
		if err != nil {
			return models.HistoricalTelemetry{}, fmt.Errorf("historical telemetry of device %s: %w", p.DeviceID, err)
		}
		return models.HistoricalTelemetryFromTimeseries(ts, p.Attributes), nil
	})
}

// GetLatestTelemetry reads the current value of each requested attribute.
func (s *Service) GetLatestTelemetry(ctx context.Context, deviceID string, attributes []string) (models.LatestTelemetry, error) {
	return withClient(ctx, s, func(api API) (models.LatestTelemetry, error) {
		latest, err := api.LatestTelemetry(ctx, map[string][]string{deviceID: attributes})
		if err != nil {
			return models.LatestTelemetry{}, fmt.Errorf("latest telemetry of device %s: %w", deviceID, err)
		}
		return models.LatestTelemetry{
			Timestamp: s.now(),
			Values:    models.LatestValues(latest, deviceID, attributes),
		}, nil
	})
}
