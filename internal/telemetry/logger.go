/**
 * @description
 * This package builds the structured logger shared across the service. Log
 * lines are JSON, carry the service name, and are tagged with a category so
 * the back-office log browser can filter inbound-API audit records from
 * operational noise.
 *
 * @dependencies
 * - go.uber.org/zap: Structured, leveled logging.
 */
package telemetry

import "go.uber.org/zap"

// Log categories understood by the back-office log browser.
const (
	CategoryInboundAPI = "IN_API"
	CategoryRealtime   = "REALTIME"
	CategorySystem     = "SYSTEM"
)

// NewLogger builds the production logger for the service.
func NewLogger(serviceName string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// Category tags a log line for the back-office log browser.
func Category(name string) zap.Field {
	return zap.String("category", name)
}
