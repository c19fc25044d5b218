package common

import "time"

const (
	// AuthHeader carries the static API key on authenticated routes.
	AuthHeader = "X-Guard-API-Key"

	ReportCacheTTL = 5 * time.Minute

	MaxBatchItems = 100
)
