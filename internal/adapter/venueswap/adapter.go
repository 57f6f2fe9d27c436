// Package venueswap implements the concrete venue adapter: it funds
// itself from the caller, hands execution to the bound venue, and
// measures the realized output as a balance delta at its own custody
// point. The venue's self-reported results are never trusted.
package venueswap

import (
	"context"
	"fmt"
	"time"

	"VaultCore/internal/adapter"
	"VaultCore/internal/asset"
	"VaultCore/internal/ledger"
	"VaultCore/internal/vaulterr"
)

// Adapter binds one external venue endpoint. Only the authorized
// caller (normally the vault's execution gateway) may invoke Swap; the
// owner — distinct from the vault's roles — rotates that binding and
// rescues stuck balances.
type Adapter struct {
	addr          asset.Address
	led           *ledger.Ledger
	venue         adapter.Venue
	wrappedNative asset.Asset
	owner         asset.Address
	authorized    asset.Address
}

// New constructs the adapter. The venue endpoint, wrapped-native asset
// and authorized caller must all be non-null.
func New(
	addr asset.Address,
	led *ledger.Ledger,
	venue adapter.Venue,
	wrappedNative asset.Asset,
	owner asset.Address,
	authorized asset.Address,
) (*Adapter, error) {
	if addr.IsZero() || led == nil {
		return nil, fmt.Errorf("adapter custody point: %w", vaulterr.ErrInvalidArgument)
	}
	if venue == nil || venue.Addr().IsZero() {
		return nil, fmt.Errorf("venue endpoint: %w", vaulterr.ErrInvalidArgument)
	}
	if wrappedNative.IsZero() {
		return nil, fmt.Errorf("wrapped native asset: %w", vaulterr.ErrInvalidArgument)
	}
	if owner.IsZero() || authorized.IsZero() {
		return nil, fmt.Errorf("adapter owner/authorized caller: %w", vaulterr.ErrInvalidArgument)
	}
	return &Adapter{
		addr:          addr,
		led:           led,
		venue:         venue,
		wrappedNative: wrappedNative,
		owner:         owner,
		authorized:    authorized,
	}, nil
}

func (a *Adapter) Addr() asset.Address {
	return a.addr
}

// SetAuthorizedCaller rotates the single principal allowed to invoke
// Swap. Owner-only.
func (a *Adapter) SetAuthorizedCaller(caller, next asset.Address) error {
	if caller != a.owner {
		return fmt.Errorf("set authorized caller: %w", vaulterr.ErrUnauthorized)
	}
	if next.IsZero() {
		return fmt.Errorf("authorized caller: %w", vaulterr.ErrInvalidArgument)
	}
	a.authorized = next
	return nil
}

// Swap converts the caller's input asset into the output asset via the
// bound venue. The realized output is the post-call minus pre-call
// balance of the output asset at the adapter's own custody point, and
// must meet the request's minimum or the whole operation rolls back.
//
// For a native input the caller attaches the value (the input amount is
// already at the adapter's custody point when Swap runs); for a token
// input the adapter pulls the amount from the caller and authorizes the
// venue to draw it.
func (a *Adapter) Swap(ctx context.Context, caller asset.Address, req adapter.SwapRequest) (int64, error) {
	if caller != a.authorized {
		return 0, fmt.Errorf("swap caller %s: %w", caller, vaulterr.ErrUnauthorized)
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	payload, err := adapter.DecodePayload(req.Payload)
	if err != nil {
		return 0, err
	}

	snap := a.led.Snapshot()

	value := int64(0)
	if req.InputAsset.IsNative() {
		// Attached value travels with the venue call.
		if err := a.led.Transfer(asset.Native, a.addr, a.venue.Addr(), req.AmountIn); err != nil {
			a.led.Restore(snap)
			return 0, fmt.Errorf("attach native input: %w", err)
		}
		value = req.AmountIn
	} else {
		if err := a.led.TransferFrom(req.InputAsset, a.addr, caller, a.addr, req.AmountIn); err != nil {
			a.led.Restore(snap)
			return 0, fmt.Errorf("pull swap input: %w", err)
		}
		if err := a.led.Approve(req.InputAsset, a.addr, a.venue.Addr(), req.AmountIn); err != nil {
			a.led.Restore(snap)
			return 0, err
		}
	}

	before := a.led.BalanceOf(a.addr, req.OutputAsset)

	if err := a.venue.Execute(ctx, a.addr, payload.Commands, time.UnixMicro(payload.Deadline), value); err != nil {
		a.led.Restore(snap)
		return 0, fmt.Errorf("venue execute: %v: %w", err, vaulterr.ErrExternalCall)
	}

	after := a.led.BalanceOf(a.addr, req.OutputAsset)
	amountOut := after - before

	if amountOut < req.MinAmountOut {
		a.led.Restore(snap)
		return 0, fmt.Errorf("realized %d < min %d: %w", amountOut, req.MinAmountOut, vaulterr.ErrSlippage)
	}

	if err := a.led.Transfer(req.OutputAsset, a.addr, caller, amountOut); err != nil {
		a.led.Restore(snap)
		return 0, fmt.Errorf("return swap output: %w", err)
	}

	return amountOut, nil
}

// Rescue is the owner-only escape hatch for balances stuck at the
// adapter's custody point, bypassing the swap path entirely.
func (a *Adapter) Rescue(caller asset.Address, recover asset.Asset, recipient asset.Address, amount int64) error {
	if caller != a.owner {
		return fmt.Errorf("rescue: %w", vaulterr.ErrUnauthorized)
	}
	if recipient.IsZero() {
		return fmt.Errorf("rescue recipient: %w", vaulterr.ErrInvalidArgument)
	}
	return a.led.Transfer(recover, a.addr, recipient, amount)
}
