package constants

import "time"

const (
	// Page size sent as both limit and changes_limit.
	DefaultBillingLimit = 100
	MaxBillingLimit     = 500

	DefaultBillingTimeout = 15 * time.Second

	BillingAPIKeyHeader = "X-API-Key"
)
