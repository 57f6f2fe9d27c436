package asset_test

import (
	"encoding/json"
	"testing"

	"VaultCore/internal/asset"
)

// ============================================================================
// Test: Asset identifiers
// ============================================================================

func TestFromName_Deterministic(t *testing.T) {
	a := asset.FromName("usd-stable")
	b := asset.FromName("usd-stable")
	if a != b {
		t.Error("same name should derive the same asset")
	}
	if a == asset.FromName("wrapped-native") {
		t.Error("different names should derive different assets")
	}
}

func TestNative_NotZero(t *testing.T) {
	if asset.Native.IsZero() {
		t.Error("native sentinel must be distinct from the null asset")
	}
	if !asset.Native.IsNative() {
		t.Error("native sentinel should report IsNative")
	}
	if asset.FromName("usd-stable").IsNative() {
		t.Error("ordinary asset should not report IsNative")
	}
}

func TestParseAsset_RoundTrip(t *testing.T) {
	a := asset.FromName("wrapped-native")
	parsed, err := asset.ParseAsset(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, a)
	}
}

func TestParseAsset_Invalid(t *testing.T) {
	if _, err := asset.ParseAsset("not base58 0OIl"); err == nil {
		t.Error("expected error for invalid base58")
	}
	// Valid base58 but wrong length.
	if _, err := asset.ParseAsset("3yZe7d"); err == nil {
		t.Error("expected error for short identifier")
	}
}

func TestAsset_JSON(t *testing.T) {
	a := asset.FromName("usd-stable")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back asset.Asset
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("JSON round trip mismatch: got %s, want %s", back, a)
	}
}

// ============================================================================
// Test: Address handles
// ============================================================================

func TestAddressFromName_Deterministic(t *testing.T) {
	a := asset.AddressFromName("vault-core")
	b := asset.AddressFromName("vault-core")
	if a != b {
		t.Error("same name should derive the same address")
	}
	if a.IsZero() {
		t.Error("derived address should not be the null address")
	}
}

func TestParseAddress_RoundTrip(t *testing.T) {
	a := asset.AddressFromName("governance-admin")
	parsed, err := asset.ParseAddress(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, a)
	}
}

func TestAddress_JSON(t *testing.T) {
	a := asset.AddressFromName("loop-venue")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back asset.Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("JSON round trip mismatch: got %s, want %s", back, a)
	}
}
