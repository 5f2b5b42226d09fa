package observability

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ca-srg/kwsearch/internal/types"
)

// Protocol is an OTLP transport
type Protocol string

const (
	ProtocolHTTP Protocol = "http/protobuf"
	ProtocolGRPC Protocol = "grpc"
)

const (
	defaultServiceName    = "kwsearch"
	defaultMetricInterval = 30 * time.Second
	serviceNameKey        = "service.name"
)

// Settings holds the OpenTelemetry options taken from types.Config
type Settings struct {
	Enabled        bool
	ServiceName    string
	Endpoint       string
	Protocol       Protocol
	Attributes     map[string]string
	Sampler        string
	SamplerArg     float64
	MetricInterval time.Duration
}

// SettingsFrom extracts and validates the telemetry settings of cfg
func SettingsFrom(cfg *types.Config) (*Settings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil configuration")
	}

	attributes, err := parseAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: OTEL_RESOURCE_ATTRIBUTES: %w", err)
	}

	s := &Settings{
		Enabled:     cfg.OTelEnabled,
		ServiceName: strings.TrimSpace(cfg.OTelServiceName),
		Endpoint:    strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		Protocol:    Protocol(strings.ToLower(strings.TrimSpace(cfg.OTelExporterOTLPProtocol))),
		Attributes:  attributes,
		Sampler:     strings.ToLower(strings.TrimSpace(cfg.OTelTracesSampler)),
		SamplerArg:  cfg.OTelTracesSamplerArg,
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) normalize() error {
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.Protocol == "" {
		s.Protocol = ProtocolHTTP
	}
	if s.Sampler == "" {
		s.Sampler = "always_on"
	}
	if s.MetricInterval <= 0 {
		s.MetricInterval = defaultMetricInterval
	}
	if s.Attributes == nil {
		s.Attributes = map[string]string{}
	}
	if _, ok := s.Attributes[serviceNameKey]; !ok {
		s.Attributes[serviceNameKey] = s.ServiceName
	}

	if !s.Enabled {
		return nil
	}

	if s.Endpoint == "" {
		return fmt.Errorf("observability: OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	if _, err := s.endpoint(); err != nil {
		return err
	}
	if s.Sampler == "traceidratio" && (s.SamplerArg <= 0 || s.SamplerArg > 1) {
		return fmt.Errorf("observability: traceidratio sampler argument must be in (0, 1], got %v", s.SamplerArg)
	}
	return nil
}

// exporterEndpoint is a resolved collector address. HTTP exporters use
// baseURL; gRPC exporters use hostPort.
type exporterEndpoint struct {
	baseURL  string
	hostPort string
	insecure bool
}

func (s *Settings) endpoint() (exporterEndpoint, error) {
	switch s.Protocol {
	case ProtocolHTTP:
		u, err := url.Parse(s.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return exporterEndpoint{}, fmt.Errorf("observability: %s endpoint must be an http(s) URL with a host, got %q", s.Protocol, s.Endpoint)
		}
		return exporterEndpoint{baseURL: s.Endpoint, insecure: u.Scheme == "http"}, nil

	case ProtocolGRPC:
		if !strings.Contains(s.Endpoint, "://") {
			if !strings.Contains(s.Endpoint, ":") {
				return exporterEndpoint{}, fmt.Errorf("observability: grpc endpoint must be host:port, got %q", s.Endpoint)
			}
			return exporterEndpoint{hostPort: s.Endpoint, insecure: true}, nil
		}
		u, err := url.Parse(s.Endpoint)
		if err != nil || u.Host == "" {
			return exporterEndpoint{}, fmt.Errorf("observability: invalid grpc endpoint %q", s.Endpoint)
		}
		switch u.Scheme {
		case "http", "grpc":
			return exporterEndpoint{hostPort: u.Host, insecure: true}, nil
		case "https", "grpcs":
			return exporterEndpoint{hostPort: u.Host}, nil
		default:
			return exporterEndpoint{}, fmt.Errorf("observability: unsupported grpc endpoint scheme %q", u.Scheme)
		}

	default:
		return exporterEndpoint{}, fmt.Errorf("observability: unsupported OTLP protocol %q", s.Protocol)
	}
}

// signalURL joins the signal path (/v1/traces, /v1/metrics) onto the base
// URL unless it is already there. Query parameters are kept.
func signalURL(base, signal string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	signal = "/" + strings.Trim(signal, "/")
	p := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(p, signal) {
		p += signal
	}
	u.Path = p
	return u.String(), nil
}

func parseAttributes(input string) (map[string]string, error) {
	attributes := map[string]string{}
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q", pair)
		}
		attributes[key] = strings.TrimSpace(value)
	}
	return attributes, nil
}
