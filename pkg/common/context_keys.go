package common

type contextKey string

const (
	TraceIdKey  contextKey = "trace_id"
	ApiKeyKey   contextKey = "api_key"
	LatencyKey  contextKey = "__execution_time"
	MetadataKey contextKey = "metadata"
)
