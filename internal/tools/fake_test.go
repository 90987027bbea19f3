// ABOUTME: In-memory fake of the upstream API for tool tests
// ABOUTME: Records queries and client lifetimes so tests can assert on them

package tools

import (
	"context"
	"iter"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/enapter/mcp-server/internal/enapter"
)

type fakeAPI struct {
	mu sync.Mutex

	sites      []enapter.Site
	devices    []enapter.Device
	latest     enapter.LatestTelemetry
	timeseries enapter.WideTimeseries

	// listErr is yielded after the listed items.
	listErr error

	listDeviceOpts []enapter.ListDevicesOptions
	getDeviceCalls []enapter.Expand
	latestQueries  []map[string][]string
	wideQueries    []enapter.WideTimeseriesQuery
}

func (f *fakeAPI) ListSites(ctx context.Context) iter.Seq2[enapter.Site, error] {
	return func(yield func(enapter.Site, error) bool) {
		for _, site := range f.sites {
			if !yield(site, nil) {
				return
			}
		}
		if f.listErr != nil {
			yield(enapter.Site{}, f.listErr)
		}
	}
}

func (f *fakeAPI) GetSite(ctx context.Context, siteID string) (enapter.Site, error) {
	for _, site := range f.sites {
		if site.ID == siteID {
			return site, nil
		}
	}
	return enapter.Site{}, &enapter.Error{StatusCode: http.StatusNotFound, Message: "site not found"}
}

func (f *fakeAPI) ListDevices(ctx context.Context, opts enapter.ListDevicesOptions) iter.Seq2[enapter.Device, error] {
	f.mu.Lock()
	f.listDeviceOpts = append(f.listDeviceOpts, opts)
	f.mu.Unlock()

	return func(yield func(enapter.Device, error) bool) {
		for _, device := range f.devices {
			if opts.SiteID != "" && device.SiteID != opts.SiteID {
				continue
			}
			if !yield(device, nil) {
				return
			}
		}
		if f.listErr != nil {
			yield(enapter.Device{}, f.listErr)
		}
	}
}

func (f *fakeAPI) GetDevice(ctx context.Context, deviceID string, expand enapter.Expand) (enapter.Device, error) {
	f.mu.Lock()
	f.getDeviceCalls = append(f.getDeviceCalls, expand)
	f.mu.Unlock()

	for _, device := range f.devices {
		if device.ID == deviceID {
			return device, nil
		}
	}
	return enapter.Device{}, &enapter.Error{StatusCode: http.StatusNotFound, Message: "device not found"}
}

func (f *fakeAPI) LatestTelemetry(ctx context.Context, attributesByDevice map[string][]string) (enapter.LatestTelemetry, error) {
	f.mu.Lock()
	f.latestQueries = append(f.latestQueries, attributesByDevice)
	f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeAPI) WideTimeseries(ctx context.Context, q enapter.WideTimeseriesQuery) (enapter.WideTimeseries, error) {
	f.mu.Lock()
	f.wideQueries = append(f.wideQueries, q)
	f.mu.Unlock()
	return f.timeseries, nil
}

func (f *fakeAPI) Close() error { return nil }

// trackedClient counts Close calls on a shared fake.
type trackedClient struct {
	*fakeAPI
	closed *int
	mu     *sync.Mutex
}

func (c trackedClient) Close() error {
	c.mu.Lock()
	*c.closed++
	c.mu.Unlock()
	return nil
}

type resolverFunc func(ctx context.Context) (enapter.Credentials, error)

func (f resolverFunc) Resolve(ctx context.Context) (enapter.Credentials, error) { return f(ctx) }

// harness wires a Service to a fake upstream.
type harness struct {
	api     *fakeAPI
	service *Service

	mu      sync.Mutex
	opened  int
	closed  int
	creds   []enapter.Credentials
	authErr error
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()
	h := &harness{api: api}

	resolver := resolverFunc(func(ctx context.Context) (enapter.Credentials, error) {
		if h.authErr != nil {
			return enapter.Credentials{}, h.authErr
		}
		return enapter.Credentials{Token: "test-token"}, nil
	})
	factory := func(creds enapter.Credentials) (API, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.opened++
		h.creds = append(h.creds, creds)
		return trackedClient{fakeAPI: api, closed: &h.closed, mu: &h.mu}, nil
	}

	h.service = NewService(resolver, factory, nil)
	h.service.now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.opened != h.closed {
			t.Errorf("upstream clients opened %d, closed %d", h.opened, h.closed)
		}
	})
	return h
}

func site(id, name, timezone string) enapter.Site {
	return enapter.Site{ID: id, Name: name, Timezone: timezone}
}

func device(id, name, siteID, deviceType string) enapter.Device {
	return enapter.Device{
		ID:          id,
		BlueprintID: "blueprint-1",
		Name:        name,
		SiteID:      siteID,
		Type:        deviceType,
	}
}

func withConnectivity(d enapter.Device, status string) enapter.Device {
	d.Connectivity = &enapter.Connectivity{Status: status}
	return d
}
