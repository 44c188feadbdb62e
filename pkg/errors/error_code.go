package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidPrice         ErrorCode = 101
	ErrCodeInvalidQuantity      ErrorCode = 102
	ErrCodeInvalidConfiguration ErrorCode = 103
	ErrCodeInvalidOrder         ErrorCode = 104

	// Sizing errors (200-299)
	ErrCodeInvalidSizerPercent ErrorCode = 200
	ErrCodeInvalidMinUnit      ErrorCode = 201
	ErrCodeUnsupportedSizer    ErrorCode = 202

	// Order errors (300-399)
	ErrCodeInvalidBracket       ErrorCode = 300
	ErrCodeBracketGroupNotFound ErrorCode = 301
	ErrCodeInvalidStopPrice     ErrorCode = 302
	ErrCodeOrderNotFound        ErrorCode = 303

	// Market data errors (400-499)
	ErrCodeMarketDataGap     ErrorCode = 400
	ErrCodeMarketDataMissing ErrorCode = 401

	// Metrics errors (500-599)
	ErrCodeOutOfOrderTrade ErrorCode = 500

	// Engine errors (600-699)
	ErrCodeEngineStateNil     ErrorCode = 600
	ErrCodeEngineInitFailed   ErrorCode = 601
	ErrCodeEngineConfigError  ErrorCode = 602
	ErrCodeEngineNoStrategy   ErrorCode = 603
	ErrCodeEngineNoDataSource ErrorCode = 604
	ErrCodeLedgerQueryFailed  ErrorCode = 605
)
