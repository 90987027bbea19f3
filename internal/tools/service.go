// ABOUTME: Tool service wiring: credential resolution and per-call upstream clients
// ABOUTME: The upstream client is acquired per call and always released

package tools

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/enapter/mcp-server/internal/auth"
	"github.com/enapter/mcp-server/internal/enapter"
)

// ErrContract reports upstream data that breaks an assumption the tools rely
// on, such as a site with several gateways.
var ErrContract = errors.New("upstream contract violation")

// API is the part of the upstream client the tools use.
type API interface {
	ListSites(ctx context.Context) iter.Seq2[enapter.Site, error]
	GetSite(ctx context.Context, siteID string) (enapter.Site, error)
	ListDevices(ctx context.Context, opts enapter.ListDevicesOptions) iter.Seq2[enapter.Device, error]
	GetDevice(ctx context.Context, deviceID string, expand enapter.Expand) (enapter.Device, error)
	LatestTelemetry(ctx context.Context, attributesByDevice map[string][]string) (enapter.LatestTelemetry, error)
	WideTimeseries(ctx context.Context, q enapter.WideTimeseriesQuery) (enapter.WideTimeseries, error)
	Close() error
}

// ClientFactory opens an upstream client bound to creds.
type ClientFactory func(creds enapter.Credentials) (API, error)

// NewClientFactory returns a factory creating real Enapter API clients.
func NewClientFactory(cfg enapter.Config) ClientFactory {
	return func(creds enapter.Credentials) (API, error) {
		c, err := enapter.New(cfg, creds)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Service implements the tool operations.
type Service struct {
	resolver  auth.Resolver
	newClient ClientFactory
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. logger may be nil.
func NewService(resolver auth.Resolver, newClient ClientFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver:  resolver,
		newClient: newClient,
		logger:    logger.With("component", "tools"),
		now:       time.Now,
	}
}

// withClient resolves the caller and runs fn with a client scoped to them.
// Nothing is sent upstream when resolution fails.
func withClient[T any](ctx context.Context, s *Service, fn func(API) (T, error)) (T, error) {
	var zero T

	creds, err := s.resolver.Resolve(ctx)
	if err != nil {
		return zero, err
	}

	client, err := s.newClient(creds)
	if err != nil {
		return zero, fmt.Errorf("create upstream client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Debug("closing upstream client", "error", err)
		}
	}()

	return fn(client)
}
