package ingestion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"VaultCore/internal/adapter"
	"VaultCore/internal/observability"
	"VaultCore/internal/registry"
	"VaultCore/internal/vault"
)

// Dispatcher applies parsed commands to the vault. It runs the single
// command loop goroutine, which is the serialization point for all
// custody state.
type Dispatcher struct {
	vault    *vault.Vault
	catalog  map[string]registry.Endpoint
	subjects map[string]string
	metrics  *observability.Metrics
	log      zerolog.Logger
}

// NewDispatcher builds a dispatcher. The catalog maps adapter catalog
// names (deployment configuration) to constructed endpoints; a
// RegisterAdapter command can only bind adapters the process actually
// runs.
func NewDispatcher(
	v *vault.Vault,
	catalog map[string]registry.Endpoint,
	subjects []SubjectConfig,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Dispatcher {
	bySubject := make(map[string]string, len(subjects))
	for _, cfg := range subjects {
		bySubject[cfg.Subject] = cfg.Command
	}
	return &Dispatcher{
		vault:    v,
		catalog:  catalog,
		subjects: bySubject,
		metrics:  metrics,
		log:      log,
	}
}

// Run drains rawChan until ctx is cancelled or the channel closes.
// Commands are applied in arrival order. A command that fails to parse
// or is rejected by the vault is ACKed and counted; redelivery cannot
// make it valid.
func (d *Dispatcher) Run(ctx context.Context, rawChan <-chan RawCommand) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-rawChan:
			if !ok {
				return nil
			}
			d.handle(ctx, raw)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, raw RawCommand) {
	name, ok := d.subjects[raw.Subject]
	if !ok {
		d.log.Warn().Str("subject", raw.Subject).Msg("message on unmapped subject")
		raw.AckFunc()
		return
	}

	if d.metrics != nil {
		d.metrics.CommandsReceived.WithLabelValues(name).Inc()
	}

	cmd, err := ParseCommand(raw, name)
	if err != nil {
		d.log.Warn().Str("command", name).Err(err).Msg("command parse failed")
		if d.metrics != nil {
			d.metrics.CommandErrors.WithLabelValues(name).Inc()
		}
		raw.AckFunc()
		return
	}

	if err := d.Apply(ctx, cmd); err != nil {
		d.log.Warn().Str("command", name).Err(err).Msg("command rejected")
		if d.metrics != nil {
			d.metrics.CommandErrors.WithLabelValues(name).Inc()
		}
	}
	raw.AckFunc()
}

// Apply executes one typed command against the vault.
func (d *Dispatcher) Apply(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case DepositNative:
		return d.vault.Deposit(c.From, c.Amount)

	case DepositToken:
		return d.vault.DepositToken(c.From, c.Asset, c.Amount)

	case Withdraw:
		return d.vault.Withdraw(c.Caller, c.Asset, c.Amount, c.Recipient)

	case GrantRole:
		return d.vault.Roles().Grant(c.Caller, c.Principal, c.Role)

	case RevokeRole:
		return d.vault.Roles().Revoke(c.Caller, c.Principal, c.Role)

	case RegisterAdapter:
		ep, ok := d.catalog[c.Adapter]
		if !ok {
			return fmt.Errorf("adapter %q not in catalog", c.Adapter)
		}
		return d.vault.RegisterAdapter(c.Caller, c.ID, ep)

	case RemoveAdapter:
		return d.vault.RemoveAdapter(c.Caller, c.ID)

	case ApproveAdapter:
		return d.vault.ApproveForAdapter(c.Caller, c.ID, c.Asset, c.Amount)

	case ExecuteSwap:
		payload := adapter.EncodePayload(adapter.Payload{
			Commands: c.Commands,
			Deadline: c.DeadlineUs,
		})
		_, err := d.vault.ExecuteSwap(ctx, c.Caller, c.ID, adapter.SwapRequest{
			InputAsset:   c.InputAsset,
			OutputAsset:  c.OutputAsset,
			AmountIn:     c.AmountIn,
			MinAmountOut: c.MinAmountOut,
			Payload:      payload,
		})
		return err

	default:
		return fmt.Errorf("unhandled command type %T", cmd)
	}
}
