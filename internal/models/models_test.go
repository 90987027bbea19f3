// ABOUTME: Tests for upstream conversions, declarations and manifest helpers
// ABOUTME: Manifests are built as untyped maps the way the upstream JSON decodes

package models

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enapter/mcp-server/internal/enapter"
)

func decodeManifest(t *testing.T, raw string) map[string]any {
	t.Helper()
	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &manifest))
	return manifest
}

func TestSiteFromUpstream(t *testing.T) {
	site := SiteFromUpstream(enapter.Site{ID: "site-001", Name: "Plant", Timezone: "Europe/Berlin", Version: "V3"})
	assert.Equal(t, Site{ID: "site-001", Name: "Plant", Timezone: "Europe/Berlin"}, site)
}

func TestDeviceFromUpstream(t *testing.T) {
	t.Run("known type", func(t *testing.T) {
		device, err := DeviceFromUpstream(enapter.Device{
			ID:          "device-001",
			BlueprintID: "bp-1",
			Name:        "Electrolyser",
			SiteID:      "site-001",
			Type:        "NATIVE",
		})
		require.NoError(t, err)
		assert.Equal(t, Device{
			ID:          "device-001",
			BlueprintID: "bp-1",
			Name:        "Electrolyser",
			SiteID:      "site-001",
			Type:        DeviceTypeNative,
		}, device)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := DeviceFromUpstream(enapter.Device{ID: "device-001", Type: "TOASTER"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestConnectivityFromUpstream(t *testing.T) {
	status, err := ConnectivityFromUpstream(nil)
	require.NoError(t, err)
	assert.Equal(t, ConnectivityUnknown, status)

	status, err = ConnectivityFromUpstream(&enapter.Connectivity{Status: "ONLINE"})
	require.NoError(t, err)
	assert.Equal(t, ConnectivityOnline, status)
}

func TestPropertyDeclarationFromDTO(t *testing.T) {
	t.Run("optional fields default to nil", func(t *testing.T) {
		decl, err := PropertyDeclarationFromDTO("serial_number", map[string]any{"type": "string"})
		require.NoError(t, err)
		assert.Equal(t, PropertyDeclaration{Name: "serial_number", DataType: DataTypeString}, decl)

		out, err := json.Marshal(decl)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"serial_number","data_type":"string","description":null,"enum":null,"unit":null}`, string(out))
	})

	t.Run("all fields", func(t *testing.T) {
		decl, err := PropertyDeclarationFromDTO("mode", map[string]any{
			"type":        "string",
			"description": "Operating mode",
			"enum":        []any{"auto", "manual"},
			"unit":        "n/a",
		})
		require.NoError(t, err)
		require.NotNil(t, decl.Description)
		assert.Equal(t, "Operating mode", *decl.Description)
		assert.Equal(t, []string{"auto", "manual"}, decl.Enum)
		require.NotNil(t, decl.Unit)
		assert.Equal(t, "n/a", *decl.Unit)
	})

	t.Run("enum as mapping", func(t *testing.T) {
		decl, err := PropertyDeclarationFromDTO("state", map[string]any{
			"type": "string",
			"enum": map[string]any{"running": map[string]any{}, "idle": map[string]any{}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"idle", "running"}, decl.Enum)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := PropertyDeclarationFromDTO("x", map[string]any{"type": "not_a_type"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("alerts type is telemetry only", func(t *testing.T) {
		_, err := PropertyDeclarationFromDTO("x", map[string]any{"type": "alerts"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := PropertyDeclarationFromDTO("x", map[string]any{"unit": "V"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := PropertyDeclarationFromDTO("x", map[string]any{"type": "float", "unit": 5.0})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTelemetryAttributeDeclarationFromDTO(t *testing.T) {
	decl, err := TelemetryAttributeDeclarationFromDTO("alerts", map[string]any{"type": "alerts", "description": nil})
	require.NoError(t, err)
	assert.Equal(t, DataTypeAlerts, decl.DataType)
	assert.Nil(t, decl.Description)
}

func TestAlertDeclarationFromDTO(t *testing.T) {
	decl, err := AlertDeclarationFromDTO("overheat", map[string]any{
		"severity":        "error",
		"description":     "Stack temperature too high",
		"troubleshooting": []any{"Check cooling", "Restart"},
		"conditions":      []any{"temperature > 80"},
	})
	require.NoError(t, err)
	assert.Equal(t, AlertSeverityError, decl.Severity)
	assert.Equal(t, []string{"Check cooling", "Restart"}, decl.Troubleshooting)
	assert.Nil(t, decl.Components)
	assert.Equal(t, []string{"temperature > 80"}, decl.Conditions)

	_, err = AlertDeclarationFromDTO("overheat", map[string]any{"severity": "fatal"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AlertDeclarationFromDTO("overheat", map[string]any{"severity": "info", "components": []any{1.0}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSummarizeManifest(t *testing.T) {
	t.Run("counts sections", func(t *testing.T) {
		manifest := decodeManifest(t, `{
			"description": "Electrolyser",
			"vendor": "Enapter",
			"properties": {"a": {"type": "string"}, "b": {"type": "string"}},
			"telemetry": {"t": {"type": "float"}},
			"alerts": {}
		}`)

		summary := SummarizeManifest(manifest)
		require.NotNil(t, summary.Description)
		assert.Equal(t, "Electrolyser", *summary.Description)
		require.NotNil(t, summary.Vendor)
		assert.Equal(t, "Enapter", *summary.Vendor)
		assert.Equal(t, len(manifest["properties"].(map[string]any)), summary.PropertiesTotal)
		assert.Equal(t, 1, summary.TelemetryAttributesTotal)
		assert.Equal(t, 0, summary.AlertsTotal)
	})

	t.Run("empty manifest", func(t *testing.T) {
		assert.Equal(t, BlueprintSummary{}, SummarizeManifest(map[string]any{}))
		assert.Equal(t, BlueprintSummary{}, SummarizeManifest(nil))
	})

	t.Run("malformed sections count as zero", func(t *testing.T) {
		summary := SummarizeManifest(map[string]any{"properties": []any{"x"}, "vendor": 42.0})
		assert.Equal(t, BlueprintSummary{}, summary)
	})
}

func TestReadSection(t *testing.T) {
	manifest := decodeManifest(t, `{
		"properties": {
			"firmware_version": {"type": "string", "display_name": "Firmware Version"},
			"serial_number": {"type": "string", "display_name": "Serial Number"},
			"model": {"type": "string", "display_name": "Model"}
		},
		"alerts": {
			"high_temperature": {"severity": "warning"}
		}
	}`)

	decls, err := ReadSection(manifest, SectionProperties)
	require.NoError(t, err)

	names := make([]string, 0, len(decls))
	for _, d := range decls {
		_, ok := d.(PropertyDeclaration)
		assert.True(t, ok)
		names = append(names, d.DeclarationName())
	}
	slices.Sort(names)
	assert.Equal(t, []string{"firmware_version", "model", "serial_number"}, names)

	decls, err = ReadSection(manifest, SectionAlerts)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, AlertSeverityWarning, decls[0].(AlertDeclaration).Severity)

	decls, err = ReadSection(manifest, SectionTelemetry)
	require.NoError(t, err)
	assert.Empty(t, decls)

	_, err = ReadSection(manifest, BlueprintSection("commands"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = ReadSection(map[string]any{"telemetry": map[string]any{"t": "float"}}, SectionTelemetry)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeclaredProperties(t *testing.T) {
	manifest := decodeManifest(t, `{"properties": {"fw": {"type": "string"}, "model": {"type": "string"}}}`)
	raw := map[string]any{"fw": "1.2.3", "undeclared": true}

	assert.Equal(t, map[string]any{"fw": "1.2.3"}, DeclaredProperties(manifest, raw))
	assert.Empty(t, DeclaredProperties(nil, raw))
}

func TestLatestValues(t *testing.T) {
	latest := enapter.LatestTelemetry{
		"dev-1": {
			"temperature": {Timestamp: 1, Value: 25.5},
			"extra":       {Timestamp: 1, Value: 1.0},
		},
	}

	values := LatestValues(latest, "dev-1", []string{"temperature", "pressure"})
	assert.Equal(t, map[string]any{"temperature": 25.5, "pressure": nil}, values)

	values = LatestValues(latest, "dev-2", []string{"temperature"})
	assert.Equal(t, map[string]any{"temperature": nil}, values)
}

func TestHistoricalTelemetryFromTimeseries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{base, base.Add(30 * time.Minute), base.Add(time.Hour)}

	ts := enapter.WideTimeseries{
		Timestamps: timestamps,
		Columns: []enapter.Column{
			{Labels: enapter.Labels{Device: "dev-1", Telemetry: "temperature"}, Values: []any{25.0, 25.5, 26.0}},
			{Labels: enapter.Labels{Device: "dev-1", Telemetry: "pressure"}, Values: []any{100.0, 100.5, 101.0}},
		},
	}

	got := HistoricalTelemetryFromTimeseries(ts, []string{"temperature", "pressure", "voltage"})
	assert.Equal(t, timestamps, got.Timestamps)
	assert.Equal(t, []any{25.0, 25.5, 26.0}, got.Values["temperature"])
	assert.Equal(t, []any{100.0, 100.5, 101.0}, got.Values["pressure"])
	assert.Equal(t, []any{nil, nil, nil}, got.Values["voltage"])

	for name, values := range got.Values {
		assert.Len(t, values, len(got.Timestamps), name)
	}
}

func TestContextJSON(t *testing.T) {
	ctx := SiteContext{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Site:      Site{ID: "s", Name: "n", Timezone: "UTC"},
	}
	out, err := json.Marshal(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"timestamp": "2024-01-01T00:00:00Z",
		"site": {"id": "s", "name": "n", "timezone": "UTC"},
		"gateway_id": null,
		"gateway_online": false,
		"devices_total": 0,
		"devices_online": 0
	}`, string(out))
}
