package provider

import (
	"encoding/json"
	"testing"

	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
)

func TestNewRequestMessageAssignsFreshIDs(t *testing.T) {
	a := NewRequestMessage(ReferenceEnableRequest, &protocol.EnableParams{})
	b := NewRequestMessage(ReferenceEnableRequest, &protocol.EnableParams{})

	if a.ID == "" {
		t.Fatal("request id must be assigned at construction")
	}
	if a.ID == b.ID {
		t.Error("two requests shared an envelope id")
	}
}

func TestIsReference(t *testing.T) {
	for _, ref := range []string{
		ReferenceEnableRequest,
		ReferenceGetProvidersRequest,
		ReferenceSignBytesRequest,
		ReferenceSignTxnsRequest,
		ReferenceDisableRequest,
	} {
		if !IsReference(ref) {
			t.Errorf("IsReference(%q) = false", ref)
		}
	}

	for _, ref := range []string{"enable-request", ReferenceEnableResponse, "arc0027:unknown:request", ""} {
		if IsReference(ref) {
			t.Errorf("IsReference(%q) = true", ref)
		}
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name  string
		msg   any
		check func(t *testing.T, req *protocol.Request)
	}{
		{
			name: "enable",
			msg:  NewRequestMessage(ReferenceEnableRequest, &protocol.EnableParams{GenesisHash: "GH1"}),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Op != protocol.OpEnable {
					t.Fatalf("op = %q", req.Op)
				}
				if req.Enable == nil || req.Enable.GenesisHash != "GH1" {
					t.Errorf("enable params lost: %+v", req.Enable)
				}
			},
		},
		{
			name: "enable without params",
			msg:  NewRequestMessage[protocol.EnableParams](ReferenceEnableRequest, nil),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Enable == nil {
					t.Error("missing enable params must default, not stay nil")
				}
			},
		},
		{
			name: "get providers",
			msg:  NewRequestMessage[struct{}](ReferenceGetProvidersRequest, nil),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Op != protocol.OpGetProviders {
					t.Fatalf("op = %q", req.Op)
				}
			},
		},
		{
			name: "sign bytes",
			msg: NewRequestMessage(ReferenceSignBytesRequest, &protocol.SignBytesParams{
				Data:   []byte("hello"),
				Signer: "ADDR1",
			}),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Op != protocol.OpSignBytes {
					t.Fatalf("op = %q", req.Op)
				}
				if req.SignBytes == nil || req.SignBytes.Signer != "ADDR1" {
					t.Errorf("sign-bytes params lost: %+v", req.SignBytes)
				}
			},
		},
		{
			name: "sign transactions",
			msg: NewRequestMessage(ReferenceSignTxnsRequest, &protocol.SignTxnsParams{
				Txns: []protocol.TxnItem{{Txn: []byte{0x01}}, {Txn: []byte{0x02}, Signers: []string{}}},
			}),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Op != protocol.OpSignTxns {
					t.Fatalf("op = %q", req.Op)
				}
				if len(req.SignTxns.Txns) != 2 {
					t.Fatalf("txns = %d, want 2", len(req.SignTxns.Txns))
				}
				if req.SignTxns.Txns[0].Signers != nil {
					t.Error("absent signers list must stay nil")
				}
				if req.SignTxns.Txns[1].Signers == nil {
					t.Error("empty signers list must stay empty, not nil")
				}
			},
		},
		{
			name: "disable",
			msg:  NewRequestMessage(ReferenceDisableRequest, &protocol.DisableParams{SessionIDs: []string{"s1"}}),
			check: func(t *testing.T, req *protocol.Request) {
				if req.Op != protocol.OpDisable {
					t.Fatalf("op = %q", req.Op)
				}
				if len(req.Disable.SessionIDs) != 1 {
					t.Errorf("disable params lost: %+v", req.Disable)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.msg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			req, err := ParseRequest(data)
			if err != nil {
				t.Fatalf("ParseRequest failed: %v", err)
			}
			if req.Generation != protocol.GenerationProvider {
				t.Errorf("generation = %q", req.Generation)
			}
			if req.ID == "" {
				t.Error("envelope id lost in parse")
			}
			tc.check(t, req)
		})
	}
}

func TestParseRequestRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown reference", []byte(`{"id":"x","reference":"arc0027:burn:request"}`)},
		{"legacy reference", []byte(`{"id":"x","reference":"enable-request"}`)},
		{"malformed json", []byte(`{"id":`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRequest(tc.data); err == nil {
				t.Error("expected parse failure")
			}
		})
	}
}

func TestEncodeResponseThreadsRequestID(t *testing.T) {
	resp := &protocol.Response{
		Generation: protocol.GenerationProvider,
		Op:         protocol.OpSignBytes,
		RequestID:  "req-123",
		SignBytes:  &protocol.SignBytesResult{Signature: []byte{0x01}, ProviderID: "p"},
	}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	var msg ResponseMessage[protocol.SignBytesResult]
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Reference != ReferenceSignBytesResponse {
		t.Errorf("reference = %q", msg.Reference)
	}
	if msg.RequestID != "req-123" {
		t.Errorf("requestId = %q, want req-123", msg.RequestID)
	}
	if msg.ID == "" || msg.ID == msg.RequestID {
		t.Error("response must carry its own fresh envelope id")
	}
	if msg.Result == nil || len(msg.Result.Signature) != 1 {
		t.Errorf("result lost: %+v", msg.Result)
	}
}

func TestEncodeErrorResponse(t *testing.T) {
	resp := protocol.NewErrorResponse(
		protocol.GenerationProvider,
		protocol.OpEnable,
		"req-9",
		providererror.NetworkNotSupported("GH-X", "p"),
	)

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	var msg ResponseMessage[protocol.EnableResult]
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Error == nil || msg.Error.Code != providererror.CodeNetworkNotSupported {
		t.Errorf("error lost: %+v", msg.Error)
	}
	if msg.Result != nil {
		t.Error("error response must not carry a result")
	}
}

func TestEncodeResponseUnknownOperation(t *testing.T) {
	if _, err := EncodeResponse(&protocol.Response{Op: "burn"}); err == nil {
		t.Error("expected failure for operation outside the enumeration")
	}
}
