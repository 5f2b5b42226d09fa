package types

// Config holds the application configuration resolved from the environment
type Config struct {
	// Search parameters
	Directory     string   `json:"directory" env:"KWSEARCH_DIRECTORY,default=./test_data"`
	KeywordsStr   string   `json:"-" env:"KWSEARCH_KEYWORDS"`
	Keywords      Keywords `json:"keywords"`
	Workers       int      `json:"workers" env:"KWSEARCH_WORKERS,default=4"`
	ExtensionsStr string   `json:"-" env:"KWSEARCH_EXTENSIONS"`
	Extensions    []string `json:"extensions"`
	Encoding      string   `json:"encoding" env:"KWSEARCH_ENCODING,default=utf-8"`
	SortResults   bool     `json:"sort_results" env:"KWSEARCH_SORT_RESULTS,default=false"`

	// Report output
	ReportDir      string `json:"report_dir" env:"KWSEARCH_REPORT_DIR,default=."`
	ReportFormat   string `json:"report_format" env:"KWSEARCH_REPORT_FORMAT,default=text"`
	ReportS3Bucket string `json:"report_s3_bucket" env:"KWSEARCH_REPORT_S3_BUCKET"`
	ReportS3Prefix string `json:"report_s3_prefix" env:"KWSEARCH_REPORT_S3_PREFIX"`
	AWSRegion      string `json:"aws_region" env:"AWS_REGION,default=us-east-1"`

	// Run history
	HistoryEnabled bool   `json:"history_enabled" env:"KWSEARCH_HISTORY_ENABLED,default=true"`
	HistoryDB      string `json:"history_db" env:"KWSEARCH_HISTORY_DB"`

	// GitHub source
	GitHubToken string `json:"-" env:"GITHUB_TOKEN"`

	// OpenTelemetry
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=kwsearch"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}
