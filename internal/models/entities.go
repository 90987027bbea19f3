// ABOUTME: Site and Device entities and their conversions from upstream API types
// ABOUTME: Device types are converted by value and unknown types are rejected

package models

import (
	"github.com/enapter/mcp-server/internal/enapter"
)

// Site is a physical location containing devices.
type Site struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// SiteFromUpstream copies id, name and timezone verbatim.
func SiteFromUpstream(s enapter.Site) Site {
	return Site{ID: s.ID, Name: s.Name, Timezone: s.Timezone}
}

// Device is a monitored unit belonging to a site.
type Device struct {
	ID          string     `json:"id"`
	BlueprintID string     `json:"blueprint_id"`
	Name        string     `json:"name"`
	SiteID      string     `json:"site_id"`
	Type        DeviceType `json:"type"`
}

// DeviceFromUpstream converts an upstream device, failing on an unknown type.
func DeviceFromUpstream(d enapter.Device) (Device, error) {
	deviceType, err := ParseDeviceType(d.Type)
	if err != nil {
		return Device{}, err
	}
	return Device{
		ID:          d.ID,
		BlueprintID: d.BlueprintID,
		Name:        d.Name,
		SiteID:      d.SiteID,
		Type:        deviceType,
	}, nil
}

// ConnectivityFromUpstream reports UNKNOWN when connectivity was not expanded.
func ConnectivityFromUpstream(c *enapter.Connectivity) (ConnectivityStatus, error) {
	if c == nil {
		return ConnectivityUnknown, nil
	}
	return ParseConnectivityStatus(c.Status)
}
