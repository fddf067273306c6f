package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Computation Errors
	ErrInvalidParameter = errors.New("invalid indicator parameter")
	ErrInsufficientData = errors.New("insufficient data for indicator")

	// Market Data Provider Errors
	ErrProvider             = errors.New("market data provider failure")
	ErrProviderUnavailable  = errors.New("market data provider is unavailable")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("provider authentication failed (check API keys)")
	ErrUnknownSymbol        = errors.New("unknown symbol")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
