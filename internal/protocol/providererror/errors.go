// Package providererror defines the error objects that cross the
// page/wallet boundary. They carry a stable integer code and plain data
// only, so they survive serialization through any message channel.
// Pages branch on the code, never on the message text.
package providererror

import (
	"errors"
	"fmt"
)

// Stable error codes. These are part of the wire contract and must never
// be renumbered.
const (
	CodeUnknown             = 4000
	CodeMethodCanceled      = 4001
	CodeMethodTimedOut      = 4002
	CodeMethodNotSupported  = 4003
	CodeNetworkNotSupported = 4004
	CodeUnauthorizedSigner  = 4100
	CodeInvalidInput        = 4200
	CodeInvalidGroupID      = 4201
	CodeInvalidPassword     = 4300
	CodeOffline             = 4400
)

type SerializableError struct {
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	ProviderID string         `json:"providerId"`
	Data       map[string]any `json:"data,omitempty"`
}

func (e *SerializableError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func New(code int, message, providerID string, data map[string]any) *SerializableError {
	return &SerializableError{
		Code:       code,
		Message:    message,
		ProviderID: providerID,
		Data:       data,
	}
}

func MethodCanceled(providerID string) *SerializableError {
	return New(CodeMethodCanceled, "request canceled by the user", providerID, nil)
}

func MethodTimedOut(providerID string) *SerializableError {
	return New(CodeMethodTimedOut, "request timed out", providerID, nil)
}

func MethodNotSupported(method, providerID string) *SerializableError {
	return New(CodeMethodNotSupported, fmt.Sprintf("method %q is not supported", method), providerID, nil)
}

func NetworkNotSupported(genesisHash, providerID string) *SerializableError {
	return New(CodeNetworkNotSupported, "network is not supported", providerID, map[string]any{
		"genesisHash": genesisHash,
	})
}

func UnauthorizedSigner(signer, providerID string) *SerializableError {
	return New(CodeUnauthorizedSigner, "signer is not authorized", providerID, map[string]any{
		"signer": signer,
	})
}

func InvalidInput(message, providerID string) *SerializableError {
	return New(CodeInvalidInput, message, providerID, nil)
}

func InvalidGroupID(providerID string) *SerializableError {
	return New(CodeInvalidGroupID, "computed group id does not match the assigned group id", providerID, nil)
}

// InvalidPassword deliberately carries no account data: a page must not be
// able to learn which accounts exist from a failed unlock.
func InvalidPassword(providerID string) *SerializableError {
	return New(CodeInvalidPassword, "invalid unlock credential", providerID, nil)
}

func Offline(providerID string) *SerializableError {
	return New(CodeOffline, "operation requires network connectivity", providerID, nil)
}

// Map converts any error into a SerializableError. Errors that already are
// one pass through unchanged; anything else collapses to CodeUnknown so raw
// diagnostics never reach the requesting page.
func Map(err error, providerID string) *SerializableError {
	var se *SerializableError
	if errors.As(err, &se) {
		return se
	}
	return New(CodeUnknown, "an unknown error occurred", providerID, nil)
}
