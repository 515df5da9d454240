// Package protocol defines the message envelope shared by both provider
// generations, and the generation-neutral request/response forms the
// wallet pipeline operates on. The wire shapes of each generation live in
// the provider and legacy subpackages; they never share a dispatch table.
package protocol

import (
	"github.com/google/uuid"

	"avm_wallet/internal/protocol/providererror"
)

// Generation identifies which protocol family a message belongs to.
type Generation string

const (
	GenerationProvider Generation = "provider"
	GenerationLegacy   Generation = "legacy"
)

// Operation names a wallet operation independently of the wire reference
// tag that requested it.
type Operation string

const (
	OpEnable       Operation = "enable"
	OpGetProviders Operation = "get-providers"
	OpSignBytes    Operation = "sign-bytes"
	OpSignTxns     Operation = "sign-transactions"
	OpDisable      Operation = "disable"
)

// Message is the correlation envelope under every request and response.
// The id is assigned once at construction and is the sole key a client may
// use to match a response to its request.
type Message struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

// NewMessage assigns a fresh random id. Callers never supply their own.
func NewMessage(reference string) Message {
	return Message{
		ID:        uuid.NewString(),
		Reference: reference,
	}
}

// Request is the parsed, generation-neutral form of an inbound message.
// Exactly one params pointer is set, matching Op.
type Request struct {
	Message
	Generation Generation       `json:"generation"`
	Op         Operation        `json:"op"`
	Enable     *EnableParams    `json:"enable,omitempty"`
	SignBytes  *SignBytesParams `json:"signBytes,omitempty"`
	SignTxns   *SignTxnsParams  `json:"signTxns,omitempty"`
	Disable    *DisableParams   `json:"disable,omitempty"`
}

// NeedsApproval reports whether the operation suspends on a human decision
// before it may touch key material or grant authority.
func (r *Request) NeedsApproval() bool {
	switch r.Op {
	case OpEnable, OpSignBytes, OpSignTxns:
		return true
	}
	return false
}

// Response is the generation-neutral result the pipeline produces. The
// RequestID is always supplied explicitly by the caller; it is never
// inferred, since the originating request lives on the other side of an
// asynchronous boundary. Exactly one of Error or the result pointers is
// set on a terminal response.
type Response struct {
	Generation Generation                         `json:"generation"`
	Op         Operation                          `json:"op"`
	RequestID  string                             `json:"requestId"`
	Error      *providererror.SerializableError   `json:"error,omitempty"`
	Enable     *EnableResult                      `json:"enable,omitempty"`
	Providers  *GetProvidersResult                `json:"providers,omitempty"`
	SignBytes  *SignBytesResult                   `json:"signBytes,omitempty"`
	SignTxns   *SignTxnsResult                    `json:"signTxns,omitempty"`
	Disable    *DisableResult                     `json:"disable,omitempty"`
}

// NewErrorResponse builds a terminal error response for any operation.
func NewErrorResponse(gen Generation, op Operation, requestID string, e *providererror.SerializableError) *Response {
	return &Response{
		Generation: gen,
		Op:         op,
		RequestID:  requestID,
		Error:      e,
	}
}
