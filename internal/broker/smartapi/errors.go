package smartapi

import "fmt"

// AuthError reports rejected credentials or a rejected session token,
// carrying the upstream error message and code.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("smartapi auth rejected (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("smartapi auth rejected: %s", e.Message)
}

// NetworkError reports a transport-level failure before any API-level
// response could be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("smartapi %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NoDataError reports an empty or malformed market-data response. The
// symbol token is likely wrong, or the market never traded in the
// requested range. Callers never get an empty series as a success.
type NoDataError struct {
	SymbolToken string
	Exchange    string
	Message     string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no candle data for token %s on %s: %s", e.SymbolToken, e.Exchange, e.Message)
}
