// ABOUTME: Aggregated site and device context snapshots
// ABOUTME: Captured at computation time and never cached

package models

import "time"

// SiteContext summarizes a site with its gateway and device counts.
type SiteContext struct {
	Timestamp     time.Time `json:"timestamp"`
	Site          Site      `json:"site"`
	GatewayID     *string   `json:"gateway_id"`
	GatewayOnline bool      `json:"gateway_online"`
	DevicesTotal  int       `json:"devices_total"`
	DevicesOnline int       `json:"devices_online"`
}

// DeviceContext combines a device with its connectivity, declared properties,
// latest declared telemetry and blueprint summary.
type DeviceContext struct {
	Timestamp          time.Time          `json:"timestamp"`
	Device             Device             `json:"device"`
	ConnectivityStatus ConnectivityStatus `json:"connectivity_status"`
	Properties         map[string]any     `json:"properties"`
	LatestTelemetry    map[string]any     `json:"latest_telemetry"`
	BlueprintSummary   BlueprintSummary   `json:"blueprint_summary"`
}

// DeclaredProperties keeps only the raw properties named in the manifest's
// properties section.
func DeclaredProperties(manifest map[string]any, properties map[string]any) map[string]any {
	out := make(map[string]any)
	for _, name := range DeclaredNames(manifest, SectionProperties) {
		if value, ok := properties[name]; ok {
			out[name] = value
		}
	}
	return out
}
