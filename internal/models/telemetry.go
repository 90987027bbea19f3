// ABOUTME: Latest and historical telemetry snapshots
// ABOUTME: Historical values stay aligned with the upstream timestamp axis

package models

import (
	"time"

	"github.com/enapter/mcp-server/internal/enapter"
)

// LatestTelemetry holds the current value of each requested attribute. A nil
// value means the attribute has no datapoint.
type LatestTelemetry struct {
	Timestamp time.Time      `json:"timestamp"`
	Values    map[string]any `json:"values"`
}

// HistoricalTelemetry holds one value sequence per attribute, each the same
// length as Timestamps.
type HistoricalTelemetry struct {
	Timestamps []time.Time       `json:"timestamps"`
	Values     map[string][]any `json:"values"`
}

// LatestValues restricts an upstream latest-telemetry answer for deviceID to
// exactly the given attributes. Missing datapoints become nil.
func LatestValues(latest enapter.LatestTelemetry, deviceID string, attributes []string) map[string]any {
	datapoints := latest[deviceID]
	values := make(map[string]any, len(attributes))
	for _, attribute := range attributes {
		if dp := datapoints[attribute]; dp != nil {
			values[attribute] = dp.Value
		} else {
			values[attribute] = nil
		}
	}
	return values
}

// HistoricalTelemetryFromTimeseries keys upstream columns by telemetry name.
// Timestamps are passed through unchanged. Requested attributes with no
// column are filled with nils so every sequence stays aligned.
func HistoricalTelemetryFromTimeseries(ts enapter.WideTimeseries, attributes []string) HistoricalTelemetry {
	timestamps := ts.Timestamps
	if timestamps == nil {
		timestamps = []time.Time{}
	}

	values := make(map[string][]any, len(attributes))
	for _, column := range ts.Columns {
		values[column.Labels.Telemetry] = column.Values
	}
	for _, attribute := range attributes {
		if _, ok := values[attribute]; !ok {
			values[attribute] = make([]any, len(timestamps))
		}
	}
	return HistoricalTelemetry{Timestamps: timestamps, Values: values}
}
