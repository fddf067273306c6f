package ports

import "context"

// Fields carries structured key/value context for one log entry.
type Fields = map[string]interface{}

// Logger is the structured logger used by the service and its adapters.
// The computation packages never log.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs msg with err attached; err may be nil.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}
