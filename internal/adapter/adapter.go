// Package adapter defines the capability-typed contract between the
// custody core and pluggable venue adapters. Each adapter encapsulates
// one external execution venue's calling convention behind the uniform
// Swap entry point; the venue-specific instruction payload stays opaque
// to the core.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VaultCore/internal/asset"
	"VaultCore/internal/vaulterr"
)

// SwapRequest is the ephemeral value object for one swap execution.
type SwapRequest struct {
	InputAsset   asset.Asset
	OutputAsset  asset.Asset
	AmountIn     int64
	MinAmountOut int64
	// Payload carries the venue-specific instruction set, opaque to the
	// custody core. See Payload for the envelope the adapter decodes.
	Payload []byte
}

// Validate rejects malformed requests before any state is touched.
func (r SwapRequest) Validate() error {
	if r.InputAsset.IsZero() || r.OutputAsset.IsZero() {
		return fmt.Errorf("swap asset: %w", vaulterr.ErrInvalidArgument)
	}
	if r.AmountIn <= 0 {
		return fmt.Errorf("swap amount in %d: %w", r.AmountIn, vaulterr.ErrInvalidArgument)
	}
	if r.MinAmountOut < 0 {
		return fmt.Errorf("swap min out %d: %w", r.MinAmountOut, vaulterr.ErrInvalidArgument)
	}
	return nil
}

// Adapter is the uniform swap contract a registered adapter exposes.
// Swap converts custody-held input into output via the adapter's venue
// and returns the realized output amount, measured as a balance delta
// at the adapter's own custody point. Only the adapter's authorized
// caller may invoke it.
type Adapter interface {
	Addr() asset.Address
	Swap(ctx context.Context, caller asset.Address, req SwapRequest) (int64, error)
}

// Venue is the external execution endpoint an adapter talks to. It is
// an out-of-scope collaborator: failures propagate synchronously, and
// its self-reported results are never trusted for accounting.
type Venue interface {
	Addr() asset.Address
	// Execute runs the decoded instruction sequence. value is the
	// attached native-coin amount (already delivered to the venue's
	// custody point by the caller).
	Execute(ctx context.Context, from asset.Address, commands []json.RawMessage, deadline time.Time, value int64) error
}

// Payload is the decoded venue instruction envelope. Commands remain
// opaque byte blobs interpreted only by the venue; the deadline is the
// sole pre-submission staleness bound.
type Payload struct {
	Commands []json.RawMessage `json:"commands"`
	Deadline int64             `json:"deadline_us"`
}

// DecodePayload parses the opaque venue payload attached to a swap
// request.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, fmt.Errorf("empty venue payload: %w", vaulterr.ErrInvalidArgument)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode venue payload: %v: %w", err, vaulterr.ErrInvalidArgument)
	}
	if p.Deadline <= 0 {
		return p, fmt.Errorf("venue payload deadline %d: %w", p.Deadline, vaulterr.ErrInvalidArgument)
	}
	return p, nil
}

// EncodePayload builds the wire form of a venue payload.
func EncodePayload(p Payload) []byte {
	data, _ := json.Marshal(p)
	return data
}
