// Package legacy implements the older ad-hoc generation of the wallet
// protocol, kept alive for pages that predate the standardized provider
// family. It exposes only the operations that generation ever had: enable,
// sign-bytes and sign-transactions. Requests carry their params in a
// "payload" field and responses echo the request id as "requestID".
package legacy

import (
	"encoding/json"
	"fmt"

	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
)

const (
	ReferenceEnableRequest    = "enable-request"
	ReferenceEnableResponse   = "enable-response"
	ReferenceSignBytesRequest = "sign-bytes-request"
	ReferenceSignBytesResponse = "sign-bytes-response"
	ReferenceSignTxnsRequest  = "sign-txns-request"
	ReferenceSignTxnsResponse = "sign-txns-response"
)

type RequestMessage struct {
	protocol.Message
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ResponseMessage[R any] struct {
	protocol.Message
	RequestID string                           `json:"requestID"`
	Error     *providererror.SerializableError `json:"error"`
	Payload   *R                               `json:"payload"`
}

func NewRequestMessage(reference string, payload any) (RequestMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RequestMessage{}, fmt.Errorf("legacy: encode payload: %w", err)
	}
	return RequestMessage{
		Message: protocol.NewMessage(reference),
		Payload: raw,
	}, nil
}

func NewResponseMessage[R any](reference, requestID string, payload *R, e *providererror.SerializableError) ResponseMessage[R] {
	return ResponseMessage[R]{
		Message:   protocol.NewMessage(reference),
		RequestID: requestID,
		Error:     e,
		Payload:   payload,
	}
}

var requestReferences = map[string]protocol.Operation{
	ReferenceEnableRequest:    protocol.OpEnable,
	ReferenceSignBytesRequest: protocol.OpSignBytes,
	ReferenceSignTxnsRequest:  protocol.OpSignTxns,
}

func IsReference(ref string) bool {
	_, ok := requestReferences[ref]
	return ok
}

// ReferenceOperation maps a request reference to the operation it names.
func ReferenceOperation(ref string) (protocol.Operation, bool) {
	op, ok := requestReferences[ref]
	return op, ok
}

// ParseRequest decodes one legacy wire message into the neutral request
// form. References outside this generation's enumeration are rejected.
func ParseRequest(data []byte) (*protocol.Request, error) {
	var msg RequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("legacy: decode envelope: %w", err)
	}

	op, ok := requestReferences[msg.Reference]
	if !ok {
		return nil, fmt.Errorf("legacy: unknown reference %q", msg.Reference)
	}

	req := &protocol.Request{
		Message:    msg.Message,
		Generation: protocol.GenerationLegacy,
		Op:         op,
	}

	switch op {
	case protocol.OpEnable:
		req.Enable = &protocol.EnableParams{}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, req.Enable); err != nil {
				return nil, fmt.Errorf("legacy: decode enable payload: %w", err)
			}
		}
	case protocol.OpSignBytes:
		req.SignBytes = &protocol.SignBytesParams{}
		if err := json.Unmarshal(msg.Payload, req.SignBytes); err != nil {
			return nil, fmt.Errorf("legacy: decode sign-bytes payload: %w", err)
		}
	case protocol.OpSignTxns:
		req.SignTxns = &protocol.SignTxnsParams{}
		if err := json.Unmarshal(msg.Payload, req.SignTxns); err != nil {
			return nil, fmt.Errorf("legacy: decode sign-txns payload: %w", err)
		}
	}

	return req, nil
}

// EncodeResponse renders a neutral response into the legacy wire shape.
// Operations that never existed in this generation have no response
// reference and are reported as unsupported.
func EncodeResponse(resp *protocol.Response) ([]byte, error) {
	switch resp.Op {
	case protocol.OpEnable:
		return json.Marshal(NewResponseMessage(ReferenceEnableResponse, resp.RequestID, resp.Enable, resp.Error))
	case protocol.OpSignBytes:
		return json.Marshal(NewResponseMessage(ReferenceSignBytesResponse, resp.RequestID, resp.SignBytes, resp.Error))
	case protocol.OpSignTxns:
		return json.Marshal(NewResponseMessage(ReferenceSignTxnsResponse, resp.RequestID, resp.SignTxns, resp.Error))
	}
	return nil, fmt.Errorf("legacy: no response reference for operation %q", resp.Op)
}
