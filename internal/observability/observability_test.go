package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/ca-srg/kwsearch/internal/types"
)

func TestSettingsFrom(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr bool
		check   func(t *testing.T, s *Settings)
	}{
		{
			name: "disabled needs no endpoint",
			cfg:  types.Config{},
			check: func(t *testing.T, s *Settings) {
				assert.False(t, s.Enabled)
				assert.Equal(t, "kwsearch", s.ServiceName)
				assert.Equal(t, ProtocolHTTP, s.Protocol)
				assert.Equal(t, "kwsearch", s.Attributes["service.name"])
			},
		},
		{
			name: "resource attributes parsed",
			cfg: types.Config{
				OTelServiceName:        "search-bench",
				OTelResourceAttributes: "env=ci, team = infra ,",
			},
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, map[string]string{
					"env":          "ci",
					"team":         "infra",
					"service.name": "search-bench",
				}, s.Attributes)
			},
		},
		{
			name:    "malformed attribute",
			cfg:     types.Config{OTelResourceAttributes: "novalue"},
			wantErr: true,
		},
		{
			name:    "enabled without endpoint",
			cfg:     types.Config{OTelEnabled: true},
			wantErr: true,
		},
		{
			name:    "http endpoint without scheme",
			cfg:     types.Config{OTelEnabled: true, OTelExporterOTLPEndpoint: "collector:4318"},
			wantErr: true,
		},
		{
			name: "grpc host port",
			cfg: types.Config{
				OTelEnabled:              true,
				OTelExporterOTLPEndpoint: "collector:4317",
				OTelExporterOTLPProtocol: "GRPC",
			},
			check: func(t *testing.T, s *Settings) {
				ep, err := s.endpoint()
				require.NoError(t, err)
				assert.Equal(t, "collector:4317", ep.hostPort)
				assert.True(t, ep.insecure)
			},
		},
		{
			name: "grpcs scheme is secure",
			cfg: types.Config{
				OTelEnabled:              true,
				OTelExporterOTLPEndpoint: "grpcs://collector:4317",
				OTelExporterOTLPProtocol: "grpc",
			},
			check: func(t *testing.T, s *Settings) {
				ep, err := s.endpoint()
				require.NoError(t, err)
				assert.Equal(t, "collector:4317", ep.hostPort)
				assert.False(t, ep.insecure)
			},
		},
		{
			name:    "unknown protocol",
			cfg:     types.Config{OTelEnabled: true, OTelExporterOTLPEndpoint: "http://c:4318", OTelExporterOTLPProtocol: "http/json"},
			wantErr: true,
		},
		{
			name: "ratio sampler out of range",
			cfg: types.Config{
				OTelEnabled:              true,
				OTelExporterOTLPEndpoint: "http://c:4318",
				OTelTracesSampler:        "traceidratio",
				OTelTracesSamplerArg:     1.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SettingsFrom(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestSignalURL(t *testing.T) {
	tests := []struct {
		base, signal, want string
	}{
		{"https://collector:4318", "/v1/metrics", "https://collector:4318/v1/metrics"},
		{"http://localhost:4318/", "/v1/traces", "http://localhost:4318/v1/traces"},
		{"https://example.com/otlp", "v1/metrics", "https://example.com/otlp/v1/metrics"},
		{"https://example.com/otlp/v1/metrics", "/v1/metrics", "https://example.com/otlp/v1/metrics"},
		{"https://example.com/otlp?token=abc", "/v1/traces", "https://example.com/otlp/v1/traces?token=abc"},
	}

	for _, tt := range tests {
		got, err := signalURL(tt.base, tt.signal)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(&types.Config{})
	require.NoError(t, err)

	_, span := otel.Tracer("kwsearch/test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ExportsOverHTTP(t *testing.T) {
	var traces, metrics atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/traces":
			traces.Add(1)
		case "/v1/metrics":
			metrics.Add(1)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	shutdown, err := Init(&types.Config{
		OTelEnabled:              true,
		OTelServiceName:          "kwsearch-test",
		OTelExporterOTLPEndpoint: server.URL,
		OTelExporterOTLPProtocol: "http/protobuf",
		OTelTracesSampler:        "always_on",
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, span := otel.Tracer("kwsearch/test").Start(ctx, "search.thread")
	span.End()

	counter, err := otel.Meter("kwsearch/test").Int64Counter("kwsearch.files.scanned")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(shutdownCtx))

	assert.GreaterOrEqual(t, traces.Load(), int32(1), "no trace export received")
	assert.GreaterOrEqual(t, metrics.Load(), int32(1), "no metric export received")
}

func TestInit_InvalidConfig(t *testing.T) {
	shutdown, err := Init(&types.Config{OTelEnabled: true})
	assert.Error(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
