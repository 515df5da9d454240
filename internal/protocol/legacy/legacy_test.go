package legacy

import (
	"encoding/json"
	"testing"

	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
)

func TestIsReference(t *testing.T) {
	for _, ref := range []string{ReferenceEnableRequest, ReferenceSignBytesRequest, ReferenceSignTxnsRequest} {
		if !IsReference(ref) {
			t.Errorf("IsReference(%q) = false", ref)
		}
	}

	// This generation never had get-providers or disable.
	for _, ref := range []string{"get-providers-request", "disable-request", "arc0027:enable:request", ""} {
		if IsReference(ref) {
			t.Errorf("IsReference(%q) = true", ref)
		}
	}
}

func TestParseRequest(t *testing.T) {
	msg, err := NewRequestMessage(ReferenceSignBytesRequest, &protocol.SignBytesParams{
		Data:   []byte("payload"),
		Signer: "ADDR1",
	})
	if err != nil {
		t.Fatalf("NewRequestMessage failed: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req, err := ParseRequest(data)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Generation != protocol.GenerationLegacy {
		t.Errorf("generation = %q", req.Generation)
	}
	if req.Op != protocol.OpSignBytes {
		t.Errorf("op = %q", req.Op)
	}
	if req.ID != msg.ID {
		t.Errorf("envelope id changed in parse: %q != %q", req.ID, msg.ID)
	}
	if req.SignBytes == nil || req.SignBytes.Signer != "ADDR1" {
		t.Errorf("payload lost: %+v", req.SignBytes)
	}
}

func TestParseRequestEnableWithoutPayload(t *testing.T) {
	req, err := ParseRequest([]byte(`{"id":"x","reference":"enable-request"}`))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Enable == nil {
		t.Error("enable without payload must default its params")
	}
}

func TestParseRequestRejectsForeignReference(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"id":"x","reference":"arc0027:enable:request"}`)); err == nil {
		t.Error("provider generation reference must not parse here")
	}
}

func TestEncodeResponse(t *testing.T) {
	resp := &protocol.Response{
		Generation: protocol.GenerationLegacy,
		Op:         protocol.OpEnable,
		RequestID:  "req-7",
		Enable: &protocol.EnableResult{
			SessionID: "sess-1",
			Accounts:  []protocol.AccountInfo{{Address: "ADDR1"}},
		},
	}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	var msg ResponseMessage[protocol.EnableResult]
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Reference != ReferenceEnableResponse {
		t.Errorf("reference = %q", msg.Reference)
	}
	if msg.RequestID != "req-7" {
		t.Errorf("requestID = %q", msg.RequestID)
	}
	if msg.Payload == nil || msg.Payload.SessionID != "sess-1" {
		t.Errorf("payload lost: %+v", msg.Payload)
	}

	// The legacy response echoes the request id under "requestID", not the
	// provider generation's "requestId".
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if _, ok := raw["requestID"]; !ok {
		t.Error(`response must use the "requestID" field name`)
	}
}

func TestEncodeResponseUnsupportedOperation(t *testing.T) {
	resp := protocol.NewErrorResponse(
		protocol.GenerationLegacy,
		protocol.OpGetProviders,
		"req-8",
		providererror.MethodNotSupported("get-providers", "p"),
	)
	if _, err := EncodeResponse(resp); err == nil {
		t.Error("operations outside this generation must not encode")
	}
}
