package venueswap_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"VaultCore/internal/adapter"
	"VaultCore/internal/adapter/loopvenue"
	"VaultCore/internal/adapter/venueswap"
	"VaultCore/internal/asset"
	"VaultCore/internal/ledger"
	"VaultCore/internal/vaulterr"
)

var (
	assetX = asset.FromName("asset-x")
	assetY = asset.FromName("asset-y")
	wnat   = asset.FromName("wrapped-native")

	owner       = asset.AddressFromName("adapter-owner")
	caller      = asset.AddressFromName("vault-core")
	adapterAddr = asset.AddressFromName("swap-adapter")
	venueAddr   = asset.AddressFromName("loop-venue")
)

func newAdapter(t *testing.T, led *ledger.Ledger, venue *loopvenue.Venue) *venueswap.Adapter {
	t.Helper()
	a, err := venueswap.New(adapterAddr, led, venue, wnat, owner, caller)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return a
}

func setup(t *testing.T) (*ledger.Ledger, *loopvenue.Venue, *venueswap.Adapter) {
	t.Helper()
	led := ledger.New()
	venue := loopvenue.New(venueAddr, led, assetX, assetY)
	if err := led.Mint(venueAddr, assetY, 10_000); err != nil {
		t.Fatalf("endow venue: %v", err)
	}
	return led, venue, newAdapter(t, led, venue)
}

func request(amountIn, minOut int64, deadline time.Time) adapter.SwapRequest {
	return adapter.SwapRequest{
		InputAsset:   assetX,
		OutputAsset:  assetY,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Payload:      adapter.EncodePayload(adapter.Payload{Deadline: deadline.UnixMicro()}),
	}
}

// fund endows the caller and grants the adapter's pull allowance, the
// way the vault's execution gateway does before invoking Swap.
func fund(t *testing.T, led *ledger.Ledger, amount int64) {
	t.Helper()
	if err := led.Mint(caller, assetX, amount); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := led.Approve(assetX, caller, adapterAddr, amount); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

// ============================================================================
// Test: construction and authorization
// ============================================================================

func TestNew_RejectsNullCollaborators(t *testing.T) {
	led := ledger.New()
	venue := loopvenue.New(venueAddr, led, assetX, assetY)

	cases := []struct {
		name string
		fn   func() (*venueswap.Adapter, error)
	}{
		{"zero addr", func() (*venueswap.Adapter, error) {
			return venueswap.New(asset.Address{}, led, venue, wnat, owner, caller)
		}},
		{"nil ledger", func() (*venueswap.Adapter, error) {
			return venueswap.New(adapterAddr, nil, venue, wnat, owner, caller)
		}},
		{"nil venue", func() (*venueswap.Adapter, error) {
			return venueswap.New(adapterAddr, led, nil, wnat, owner, caller)
		}},
		{"zero wrapped native", func() (*venueswap.Adapter, error) {
			return venueswap.New(adapterAddr, led, venue, asset.Asset{}, owner, caller)
		}},
		{"zero owner", func() (*venueswap.Adapter, error) {
			return venueswap.New(adapterAddr, led, venue, wnat, asset.Address{}, caller)
		}},
		{"zero authorized", func() (*venueswap.Adapter, error) {
			return venueswap.New(adapterAddr, led, venue, wnat, owner, asset.Address{})
		}},
	}
	for _, tc := range cases {
		if _, err := tc.fn(); !errors.Is(err, vaulterr.ErrInvalidArgument) {
			t.Errorf("%s: got %v, want ErrInvalidArgument", tc.name, err)
		}
	}
}

func TestSwap_UnauthorizedCallerRejected(t *testing.T) {
	led, _, a := setup(t)
	fund(t, led, 1_000)

	stranger := asset.AddressFromName("stranger")
	_, err := a.Swap(context.Background(), stranger, request(100, 90, time.Now().Add(time.Minute)))
	if !errors.Is(err, vaulterr.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestSetAuthorizedCaller_OwnerRotates(t *testing.T) {
	led, _, a := setup(t)
	next := asset.AddressFromName("next-gateway")

	if err := a.SetAuthorizedCaller(caller, next); !errors.Is(err, vaulterr.ErrUnauthorized) {
		t.Errorf("non-owner rotate: got %v, want ErrUnauthorized", err)
	}
	if err := a.SetAuthorizedCaller(owner, asset.Address{}); !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("zero next: got %v, want ErrInvalidArgument", err)
	}
	if err := a.SetAuthorizedCaller(owner, next); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Old caller is locked out, new one works.
	fund(t, led, 1_000)
	if _, err := a.Swap(context.Background(), caller, request(100, 90, time.Now().Add(time.Minute))); !errors.Is(err, vaulterr.ErrUnauthorized) {
		t.Errorf("old caller: got %v, want ErrUnauthorized", err)
	}
}

// ============================================================================
// Test: swap accounting
// ============================================================================

func TestSwap_TokenInput_BalanceDelta(t *testing.T) {
	led, _, a := setup(t)
	fund(t, led, 1_000)

	out, err := a.Swap(context.Background(), caller, request(100, 90, time.Now().Add(time.Minute)))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out != 100 {
		t.Errorf("amount out: got %d, want 100", out)
	}
	if got := led.BalanceOf(caller, assetX); got != 900 {
		t.Errorf("caller X: got %d, want 900", got)
	}
	if got := led.BalanceOf(caller, assetY); got != 100 {
		t.Errorf("caller Y: got %d, want 100", got)
	}
	// Nothing may remain at the adapter's custody point.
	if got := led.BalanceOf(adapterAddr, assetX); got != 0 {
		t.Errorf("adapter X residue: %d", got)
	}
	if got := led.BalanceOf(adapterAddr, assetY); got != 0 {
		t.Errorf("adapter Y residue: %d", got)
	}
}

func TestSwap_NativeInput_AttachedValue(t *testing.T) {
	led := ledger.New()
	venue := loopvenue.New(venueAddr, led, asset.Native, assetY)
	led.Mint(venueAddr, assetY, 10_000)
	a := newAdapter(t, led, venue)

	// Native input sits at the adapter's custody point before Swap runs,
	// the way the gateway attaches value.
	led.Mint(adapterAddr, asset.Native, 100)

	req := adapter.SwapRequest{
		InputAsset:   asset.Native,
		OutputAsset:  assetY,
		AmountIn:     100,
		MinAmountOut: 90,
		Payload:      adapter.EncodePayload(adapter.Payload{Deadline: time.Now().Add(time.Minute).UnixMicro()}),
	}
	out, err := a.Swap(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out != 100 {
		t.Errorf("amount out: got %d, want 100", out)
	}
	if got := led.BalanceOf(venueAddr, asset.Native); got != 100 {
		t.Errorf("venue native: got %d, want 100", got)
	}
	if got := led.BalanceOf(caller, assetY); got != 100 {
		t.Errorf("caller Y: got %d, want 100", got)
	}
}

func TestSwap_SlippageRollsBack(t *testing.T) {
	led, venue, a := setup(t)
	fund(t, led, 1_000)
	venue.Deliver = func(in int64) int64 { return in / 2 }
	before := led.Balances()

	_, err := a.Swap(context.Background(), caller, request(100, 90, time.Now().Add(time.Minute)))
	if !errors.Is(err, vaulterr.ErrSlippage) {
		t.Fatalf("got %v, want ErrSlippage", err)
	}
	if !reflect.DeepEqual(before, led.Balances()) {
		t.Error("slippage failure must roll back all movement")
	}
}

func TestSwap_VenueErrorWrapsExternalCall(t *testing.T) {
	led, venue, a := setup(t)
	fund(t, led, 1_000)
	venue.Err = fmt.Errorf("settlement halted")
	before := led.Balances()

	_, err := a.Swap(context.Background(), caller, request(100, 90, time.Now().Add(time.Minute)))
	if !errors.Is(err, vaulterr.ErrExternalCall) {
		t.Fatalf("got %v, want ErrExternalCall", err)
	}
	if !reflect.DeepEqual(before, led.Balances()) {
		t.Error("venue failure must roll back all movement")
	}
}

func TestSwap_ExpiredDeadlineFails(t *testing.T) {
	led, _, a := setup(t)
	fund(t, led, 1_000)

	_, err := a.Swap(context.Background(), caller, request(100, 90, time.Now().Add(-time.Minute)))
	if !errors.Is(err, vaulterr.ErrExternalCall) {
		t.Errorf("got %v, want ErrExternalCall", err)
	}
}

func TestSwap_MalformedPayloadRejected(t *testing.T) {
	led, _, a := setup(t)
	fund(t, led, 1_000)

	req := adapter.SwapRequest{
		InputAsset:   assetX,
		OutputAsset:  assetY,
		AmountIn:     100,
		MinAmountOut: 90,
		Payload:      []byte("{not json"),
	}
	_, err := a.Swap(context.Background(), caller, req)
	if !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}

	req.Payload = nil
	if _, err := a.Swap(context.Background(), caller, req); !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("empty payload: got %v, want ErrInvalidArgument", err)
	}
}

// ============================================================================
// Test: rescue
// ============================================================================

func TestRescue_OwnerOnly(t *testing.T) {
	led, _, a := setup(t)
	led.Mint(adapterAddr, assetY, 77)
	recipient := asset.AddressFromName("rescue-recipient")

	if err := a.Rescue(caller, assetY, recipient, 77); !errors.Is(err, vaulterr.ErrUnauthorized) {
		t.Errorf("non-owner rescue: got %v, want ErrUnauthorized", err)
	}
	if err := a.Rescue(owner, assetY, asset.Address{}, 77); !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("null recipient: got %v, want ErrInvalidArgument", err)
	}

	if err := a.Rescue(owner, assetY, recipient, 77); err != nil {
		t.Fatalf("rescue: %v", err)
	}
	if got := led.BalanceOf(recipient, assetY); got != 77 {
		t.Errorf("recipient: got %d, want 77", got)
	}
}
