// Package loopvenue provides a deterministic in-process execution
// venue that converts an input asset to an output asset at a fixed
// rate out of its own inventory. It backs staging deployments and the
// adapter/vault test suites; its failure knobs model the venue-side
// behaviors the custody core must survive.
package loopvenue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VaultCore/internal/asset"
	"VaultCore/internal/ledger"
)

// Venue converts In to Out 1:1 by default. Deliver overrides the
// conversion, Err forces an execution failure, and OnExecute runs
// before any settlement (used to model callback-driven reentrancy).
type Venue struct {
	addr asset.Address
	led  *ledger.Ledger
	in   asset.Asset
	out  asset.Asset

	Deliver   func(amountIn int64) int64
	Err       error
	OnExecute func()
}

func New(addr asset.Address, led *ledger.Ledger, in, out asset.Asset) *Venue {
	return &Venue{addr: addr, led: led, in: in, out: out}
}

func (v *Venue) Addr() asset.Address {
	return v.addr
}

// Execute consumes the attached native value or draws the caller's
// approved input, then delivers the converted output from the venue's
// inventory to the caller's custody point.
func (v *Venue) Execute(ctx context.Context, from asset.Address, commands []json.RawMessage, deadline time.Time, value int64) error {
	if v.OnExecute != nil {
		v.OnExecute()
	}
	if v.Err != nil {
		return v.Err
	}
	if !deadline.IsZero() && deadline.Before(time.Now()) {
		return fmt.Errorf("deadline %s expired", deadline.Format(time.RFC3339))
	}

	amountIn := value
	if !v.in.IsNative() {
		granted := v.led.Allowance(v.in, from, v.addr)
		if err := v.led.TransferFrom(v.in, v.addr, from, v.addr, granted); err != nil {
			return fmt.Errorf("draw input: %w", err)
		}
		amountIn = granted
	}

	amountOut := amountIn
	if v.Deliver != nil {
		amountOut = v.Deliver(amountIn)
	}
	if amountOut == 0 {
		return nil
	}

	if err := v.led.Transfer(v.out, v.addr, from, amountOut); err != nil {
		return fmt.Errorf("deliver output: %w", err)
	}
	return nil
}
