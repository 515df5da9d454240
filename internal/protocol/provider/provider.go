// Package provider implements the standardized provider generation of the
// wallet protocol. Its reference tags form a closed enumeration; messages
// of the legacy generation are never parsed or emitted here.
package provider

import (
	"encoding/json"
	"fmt"

	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
)

const (
	ReferenceEnableRequest        = "arc0027:enable:request"
	ReferenceEnableResponse       = "arc0027:enable:response"
	ReferenceGetProvidersRequest  = "arc0027:get_providers:request"
	ReferenceGetProvidersResponse = "arc0027:get_providers:response"
	ReferenceSignBytesRequest     = "arc0027:sign_bytes:request"
	ReferenceSignBytesResponse    = "arc0027:sign_bytes:response"
	ReferenceSignTxnsRequest      = "arc0027:sign_txns:request"
	ReferenceSignTxnsResponse     = "arc0027:sign_txns:response"
	ReferenceDisableRequest       = "arc0027:disable:request"
	ReferenceDisableResponse      = "arc0027:disable:response"
)

// RequestMessage is the wire shape of a request in this generation.
type RequestMessage[P any] struct {
	protocol.Message
	Params *P `json:"params"`
}

// NewRequestMessage constructs a request with a fresh envelope id.
func NewRequestMessage[P any](reference string, params *P) RequestMessage[P] {
	return RequestMessage[P]{
		Message: protocol.NewMessage(reference),
		Params:  params,
	}
}

// ResponseMessage is the wire shape of a response. The originating request
// id must be passed in by the caller; there is nothing to infer it from.
type ResponseMessage[R any] struct {
	protocol.Message
	RequestID string                           `json:"requestId"`
	Error     *providererror.SerializableError `json:"error"`
	Result    *R                               `json:"result"`
}

func NewResponseMessage[R any](reference, requestID string, result *R, e *providererror.SerializableError) ResponseMessage[R] {
	return ResponseMessage[R]{
		Message:   protocol.NewMessage(reference),
		RequestID: requestID,
		Error:     e,
		Result:    result,
	}
}

var requestReferences = map[string]protocol.Operation{
	ReferenceEnableRequest:       protocol.OpEnable,
	ReferenceGetProvidersRequest: protocol.OpGetProviders,
	ReferenceSignBytesRequest:    protocol.OpSignBytes,
	ReferenceSignTxnsRequest:     protocol.OpSignTxns,
	ReferenceDisableRequest:      protocol.OpDisable,
}

// IsReference reports whether ref belongs to this generation's request
// enumeration.
func IsReference(ref string) bool {
	_, ok := requestReferences[ref]
	return ok
}

// ReferenceOperation maps a request reference to the operation it names.
// Lets the relay answer a claimed-but-undecodable request with the right
// response reference.
func ReferenceOperation(ref string) (protocol.Operation, bool) {
	op, ok := requestReferences[ref]
	return op, ok
}

// ParseRequest decodes one inbound wire message into the neutral request
// form. The reference tag picks the concrete params type.
func ParseRequest(data []byte) (*protocol.Request, error) {
	var envelope protocol.Message
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("provider: decode envelope: %w", err)
	}

	op, ok := requestReferences[envelope.Reference]
	if !ok {
		return nil, fmt.Errorf("provider: unknown reference %q", envelope.Reference)
	}

	req := &protocol.Request{
		Message:    envelope,
		Generation: protocol.GenerationProvider,
		Op:         op,
	}

	switch op {
	case protocol.OpEnable:
		msg, err := decodeRequest[protocol.EnableParams](data)
		if err != nil {
			return nil, err
		}
		req.Enable = msg.Params
		if req.Enable == nil {
			req.Enable = &protocol.EnableParams{}
		}
	case protocol.OpGetProviders:
		// no params
	case protocol.OpSignBytes:
		msg, err := decodeRequest[protocol.SignBytesParams](data)
		if err != nil {
			return nil, err
		}
		req.SignBytes = msg.Params
	case protocol.OpSignTxns:
		msg, err := decodeRequest[protocol.SignTxnsParams](data)
		if err != nil {
			return nil, err
		}
		req.SignTxns = msg.Params
	case protocol.OpDisable:
		msg, err := decodeRequest[protocol.DisableParams](data)
		if err != nil {
			return nil, err
		}
		req.Disable = msg.Params
		if req.Disable == nil {
			req.Disable = &protocol.DisableParams{}
		}
	}

	return req, nil
}

func decodeRequest[P any](data []byte) (*RequestMessage[P], error) {
	var msg RequestMessage[P]
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("provider: decode params: %w", err)
	}
	return &msg, nil
}

// EncodeResponse renders a neutral response into this generation's wire
// shape for the operation it answers.
func EncodeResponse(resp *protocol.Response) ([]byte, error) {
	switch resp.Op {
	case protocol.OpEnable:
		return json.Marshal(NewResponseMessage(ReferenceEnableResponse, resp.RequestID, resp.Enable, resp.Error))
	case protocol.OpGetProviders:
		return json.Marshal(NewResponseMessage(ReferenceGetProvidersResponse, resp.RequestID, resp.Providers, resp.Error))
	case protocol.OpSignBytes:
		return json.Marshal(NewResponseMessage(ReferenceSignBytesResponse, resp.RequestID, resp.SignBytes, resp.Error))
	case protocol.OpSignTxns:
		return json.Marshal(NewResponseMessage(ReferenceSignTxnsResponse, resp.RequestID, resp.SignTxns, resp.Error))
	case protocol.OpDisable:
		return json.Marshal(NewResponseMessage(ReferenceDisableResponse, resp.RequestID, resp.Disable, resp.Error))
	}
	return nil, fmt.Errorf("provider: no response reference for operation %q", resp.Op)
}
