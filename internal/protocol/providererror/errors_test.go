package providererror

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestStableCodes(t *testing.T) {
	// Wire contract: these numbers must never drift.
	tests := []struct {
		name string
		err  *SerializableError
		code int
	}{
		{"method canceled", MethodCanceled("p"), 4001},
		{"method timed out", MethodTimedOut("p"), 4002},
		{"method not supported", MethodNotSupported("disable", "p"), 4003},
		{"network not supported", NetworkNotSupported("gh", "p"), 4004},
		{"unauthorized signer", UnauthorizedSigner("ADDR", "p"), 4100},
		{"invalid input", InvalidInput("bad", "p"), 4200},
		{"invalid group id", InvalidGroupID("p"), 4201},
		{"invalid password", InvalidPassword("p"), 4300},
		{"offline", Offline("p"), 4400},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("code = %d, want %d", tc.err.Code, tc.code)
			}
			if tc.err.ProviderID != "p" {
				t.Errorf("providerId = %q, want %q", tc.err.ProviderID, "p")
			}
		})
	}
}

func TestInvalidPasswordCarriesNoData(t *testing.T) {
	if InvalidPassword("p").Data != nil {
		t.Error("invalid password error must not leak account data")
	}
}

func TestMapPassthrough(t *testing.T) {
	orig := UnauthorizedSigner("ADDR", "p")

	if got := Map(orig, "other"); got != orig {
		t.Error("Map should return an existing provider error unchanged")
	}

	wrapped := fmt.Errorf("signing: %w", orig)
	if got := Map(wrapped, "other"); got != orig {
		t.Error("Map should unwrap to the underlying provider error")
	}
}

func TestMapCollapsesUnknownErrors(t *testing.T) {
	got := Map(errors.New("mongo: connection reset"), "p")
	if got.Code != CodeUnknown {
		t.Errorf("code = %d, want %d", got.Code, CodeUnknown)
	}
	if got.ProviderID != "p" {
		t.Errorf("providerId = %q, want %q", got.ProviderID, "p")
	}
	if got.Message == "mongo: connection reset" {
		t.Error("raw diagnostics must not leak to the page")
	}
}

func TestSerialization(t *testing.T) {
	blob, err := json.Marshal(NetworkNotSupported("gh-value", "p"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out SerializableError
	if err := json.Unmarshal(blob, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Code != CodeNetworkNotSupported || out.ProviderID != "p" {
		t.Errorf("round trip mangled error: %+v", out)
	}
	if out.Data["genesisHash"] != "gh-value" {
		t.Errorf("data lost in round trip: %+v", out.Data)
	}
}
