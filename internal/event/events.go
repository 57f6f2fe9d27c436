// Package event defines the append-only audit events the custody core
// emits. Events are observable facts about completed operations; they
// are never read back by the core itself.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"VaultCore/internal/asset"
	"VaultCore/internal/registry"
)

// Type discriminates audit event payloads.
type Type int32

const (
	TypeUnknown Type = iota
	TypeDeposit
	TypeWithdrawal
	TypeAdapterRegistered
	TypeAdapterRemoved
	TypeSwapExecuted
)

func (t Type) String() string {
	switch t {
	case TypeDeposit:
		return "Deposit"
	case TypeWithdrawal:
		return "Withdrawal"
	case TypeAdapterRegistered:
		return "AdapterRegistered"
	case TypeAdapterRemoved:
		return "AdapterRemoved"
	case TypeSwapExecuted:
		return "SwapExecuted"
	default:
		return "Unknown"
	}
}

// MarshalJSON emits the type name rather than the numeric value so
// published envelopes stay readable without this package.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Deposit":
		*t = TypeDeposit
	case "Withdrawal":
		*t = TypeWithdrawal
	case "AdapterRegistered":
		*t = TypeAdapterRegistered
	case "AdapterRemoved":
		*t = TypeAdapterRemoved
	case "SwapExecuted":
		*t = TypeSwapExecuted
	default:
		*t = TypeUnknown
	}
	return nil
}

// Envelope wraps every audit event with its vault-assigned sequence.
type Envelope struct {
	// Monotonic sequence assigned by the vault.
	Sequence int64 `json:"sequence"`

	// Unique id of the operation that produced the event.
	OperationID uuid.UUID `json:"operation_id"`

	Type      Type      `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	// Typed payload, one of the structs below. JSON-encoded at the
	// persistence and publishing boundaries.
	Payload interface{} `json:"payload"`
}

// Deposit records custody intake, solicited or not.
type Deposit struct {
	Asset  asset.Asset   `json:"asset"`
	From   asset.Address `json:"from"`
	Amount int64         `json:"amount"`
}

// Withdrawal records custody leaving to an external recipient.
type Withdrawal struct {
	Asset  asset.Asset   `json:"asset"`
	To     asset.Address `json:"to"`
	Amount int64         `json:"amount"`
}

type AdapterRegistered struct {
	ID       registry.ID   `json:"id"`
	Endpoint asset.Address `json:"endpoint"`
}

type AdapterRemoved struct {
	ID registry.ID `json:"id"`
}

// SwapExecuted records a completed adapter-mediated swap. AmountOut is
// the balance-delta-measured realized output.
type SwapExecuted struct {
	AdapterID   registry.ID `json:"adapter_id"`
	InputAsset  asset.Asset `json:"input_asset"`
	OutputAsset asset.Asset `json:"output_asset"`
	AmountIn    int64       `json:"amount_in"`
	AmountOut   int64       `json:"amount_out"`
}
