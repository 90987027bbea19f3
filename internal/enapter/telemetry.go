// ABOUTME: Telemetry endpoints of the Enapter HTTP API
// ABOUTME: Latest datapoints as JSON and wide timeseries decoded from CSV

package enapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LatestDatapoint is the most recent value of one telemetry attribute.
type LatestDatapoint struct {
	Timestamp int64 `json:"timestamp"`
	Value     any   `json:"value"`
}

// LatestTelemetry maps device ID -> attribute -> datapoint. A nil datapoint
// means the attribute has never reported.
type LatestTelemetry map[string]map[string]*LatestDatapoint

// LatestTelemetry fetches the latest datapoints for the given attributes of
// each device.
func (c *Client) LatestTelemetry(ctx context.Context, attributesByDevice map[string][]string) (LatestTelemetry, error) {
	query := url.Values{}
	for deviceID, attributes := range attributesByDevice {
		query.Set("devices["+deviceID+"]", strings.Join(attributes, ","))
	}

	var resp struct {
		Telemetry LatestTelemetry `json:"telemetry"`
	}
	if err := c.getJSON(ctx, "/v3/telemetry/latest", query, &resp); err != nil {
		return nil, err
	}
	if resp.Telemetry == nil {
		resp.Telemetry = LatestTelemetry{}
	}
	return resp.Telemetry, nil
}

// Selector picks attributes of one device for a timeseries query.
type Selector struct {
	Device     string
	Attributes []string
}

// WideTimeseriesQuery describes a historical telemetry request.
type WideTimeseriesQuery struct {
	From        time.Time
	To          time.Time
	Granularity int64 // seconds
	Selectors   []Selector
}

// Labels identify the series a column belongs to.
type Labels struct {
	Device    string
	Telemetry string
}

// Column holds one series aligned with WideTimeseries.Timestamps.
type Column struct {
	Labels Labels
	Values []any
}

// WideTimeseries is a table of series sharing one timestamp axis.
type WideTimeseries struct {
	Timestamps []time.Time
	Columns    []Column
}

// WideTimeseries queries aggregated historical telemetry.
func (c *Client) WideTimeseries(ctx context.Context, q WideTimeseriesQuery) (WideTimeseries, error) {
	query := url.Values{}
	query.Set("from", q.From.UTC().Format(time.RFC3339))
	query.Set("to", q.To.UTC().Format(time.RFC3339))
	query.Set("granularity", strconv.FormatInt(q.Granularity, 10)+"s")
	for _, sel := range q.Selectors {
		for _, attribute := range sel.Attributes {
			query.Add("selector", "device="+sel.Device+",telemetry="+attribute)
		}
	}

	body, err := c.get(ctx, "/v3/telemetry", query, "text/csv")
	if err != nil {
		return WideTimeseries{}, err
	}
	return parseWideTimeseries(bytes.NewReader(body))
}

// parseWideTimeseries decodes `ts,<labels>...` CSV where label cells are
// space separated key=value pairs and ts is unix seconds.
func parseWideTimeseries(r io.Reader) (WideTimeseries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return WideTimeseries{Timestamps: []time.Time{}}, nil
	}
	if err != nil {
		return WideTimeseries{}, fmt.Errorf("read timeseries header: %w", err)
	}
	if len(header) == 0 || strings.TrimSpace(header[0]) != "ts" {
		return WideTimeseries{}, fmt.Errorf("timeseries header must start with ts, got %q", header)
	}

	ts := WideTimeseries{
		Timestamps: []time.Time{},
		Columns:    make([]Column, len(header)-1),
	}
	for i, cell := range header[1:] {
		ts.Columns[i] = Column{Labels: parseLabels(cell), Values: []any{}}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return WideTimeseries{}, fmt.Errorf("read timeseries line %d: %w", line, err)
		}
		if len(record) != len(header) {
			return WideTimeseries{}, fmt.Errorf("timeseries line %d has %d cells, want %d", line, len(record), len(header))
		}

		sec, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return WideTimeseries{}, fmt.Errorf("timeseries line %d: invalid timestamp %q", line, record[0])
		}
		ts.Timestamps = append(ts.Timestamps, time.Unix(sec, 0).UTC())
		for i, cell := range record[1:] {
			ts.Columns[i].Values = append(ts.Columns[i].Values, parseCell(cell))
		}
	}
	return ts, nil
}

func parseLabels(cell string) Labels {
	var labels Labels
	for _, pair := range strings.Fields(cell) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch key {
		case "device":
			labels.Device = value
		case "telemetry":
			labels.Telemetry = value
		}
	}
	return labels
}

func parseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch cell {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}
