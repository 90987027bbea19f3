// ABOUTME: Device endpoints of the Enapter HTTP API with optional expansions
// ABOUTME: Expansions pull manifest, connectivity and properties in the same round trip

package enapter

import (
	"context"
	"iter"
	"net/url"
	"strings"
)

// Device is the upstream device representation. Manifest, Connectivity and
// Properties are only populated when requested through Expand.
type Device struct {
	ID             string         `json:"id"`
	BlueprintID    string         `json:"blueprint_id"`
	Name           string         `json:"name"`
	SiteID         string         `json:"site_id"`
	Slug           string         `json:"slug,omitempty"`
	Type           string         `json:"type"`
	AuthorizedRole string         `json:"authorized_role,omitempty"`
	Manifest       map[string]any `json:"manifest,omitempty"`
	Connectivity   *Connectivity  `json:"connectivity,omitempty"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// Connectivity is the expanded connectivity block of a device.
type Connectivity struct {
	Status string `json:"status"`
}

// Expand selects the optional device sections to include.
type Expand struct {
	Connectivity bool
	Manifest     bool
	Properties   bool
}

func (e Expand) query() url.Values {
	var parts []string
	if e.Connectivity {
		parts = append(parts, "connectivity")
	}
	if e.Manifest {
		parts = append(parts, "manifest")
	}
	if e.Properties {
		parts = append(parts, "properties")
	}
	if len(parts) == 0 {
		return url.Values{}
	}
	return url.Values{"expand": {strings.Join(parts, ",")}}
}

// ListDevicesOptions narrows a device listing.
type ListDevicesOptions struct {
	SiteID string
	Expand Expand
}

// ListDevices streams devices, scoped to a site when opts.SiteID is set.
func (c *Client) ListDevices(ctx context.Context, opts ListDevicesOptions) iter.Seq2[Device, error] {
	path := "/v3/devices"
	if opts.SiteID != "" {
		path = "/v3/sites/" + url.PathEscape(opts.SiteID) + "/devices"
	}
	return list[Device](ctx, c, path, opts.Expand.query(), "devices")
}

// GetDevice fetches a device by ID with the requested expansions.
func (c *Client) GetDevice(ctx context.Context, deviceID string, expand Expand) (Device, error) {
	var resp struct {
		Device Device `json:"device"`
	}
	if err := c.getJSON(ctx, "/v3/devices/"+url.PathEscape(deviceID), expand.query(), &resp); err != nil {
		return Device{}, err
	}
	return resp.Device, nil
}
