package observability

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/observability"
)

// Setup initializes logging, metrics and tracing and returns the tracer shutdown hook.
func Setup(serviceName, logLevel, otlpEndpoint string) func(context.Context) error {
	observability.InitLogger(logLevel)
	observability.InitMetrics()
	return observability.InitTracing(serviceName, otlpEndpoint)
}
