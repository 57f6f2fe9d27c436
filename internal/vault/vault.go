// Package vault implements the custody core: pooled asset custody,
// role-gated fund movement, and the execution gateway that delegates
// swaps to registered venue adapters.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultCore/internal/adapter"
	"VaultCore/internal/asset"
	"VaultCore/internal/authz"
	"VaultCore/internal/event"
	"VaultCore/internal/ledger"
	"VaultCore/internal/observability"
	"VaultCore/internal/registry"
	"VaultCore/internal/vaulterr"
)

// Vault is the custodial core. All operations run on a single command
// loop, so there are no concurrent writers; the busy flag defends the
// remaining hazard — an adapter or venue calling back into a
// state-mutating entry point before the first operation finishes.
type Vault struct {
	addr  asset.Address
	led   *ledger.Ledger
	roles *authz.Authority
	reg   *registry.Registry

	busy bool
	seq  int64

	// persistChan uses blocking sends — the vault stalls rather than
	// lose an audit event. publishChan drops on full; downstream
	// consumers can recover from the durable log.
	persistChan chan<- event.Envelope
	publishChan chan<- event.Envelope

	metrics *observability.Metrics
	log     zerolog.Logger
}

// New constructs the vault and installs its native receive hook so
// unsolicited native transfers are still recorded as deposits.
func New(
	addr asset.Address,
	led *ledger.Ledger,
	roles *authz.Authority,
	reg *registry.Registry,
	persistChan, publishChan chan<- event.Envelope,
	metrics *observability.Metrics,
	log zerolog.Logger,
) (*Vault, error) {
	if addr.IsZero() || led == nil || roles == nil || reg == nil {
		return nil, fmt.Errorf("vault construction: %w", vaulterr.ErrInvalidArgument)
	}
	v := &Vault{
		addr:        addr,
		led:         led,
		roles:       roles,
		reg:         reg,
		persistChan: persistChan,
		publishChan: publishChan,
		metrics:     metrics,
		log:         log,
	}
	led.SetReceiveHook(addr, v.onNativeReceive)
	return v, nil
}

func (v *Vault) Addr() asset.Address {
	return v.addr
}

// Roles returns the vault's role authority. Role provisioning is
// driven by an external governance process through it.
func (v *Vault) Roles() *authz.Authority {
	return v.roles
}

// Registry returns the adapter registry for read access; mutation goes
// through RegisterAdapter and RemoveAdapter.
func (v *Vault) Registry() *registry.Registry {
	return v.reg
}

// BalanceOf reports the vault's custodied balance of an asset. For
// asset.Native this is the vault's own native balance.
func (v *Vault) BalanceOf(a asset.Asset) int64 {
	return v.led.BalanceOf(v.addr, a)
}

// enter acquires the reentrancy guard for a state-mutating entry
// point. Release happens unconditionally via the returned func.
func (v *Vault) enter(op string) (func(), error) {
	if v.busy {
		err := fmt.Errorf("%s: %w", op, vaulterr.ErrReentrant)
		v.reject(op, err)
		return nil, err
	}
	v.busy = true
	return func() { v.busy = false }, nil
}

// Deposit takes in native coin attached by the caller. Unrestricted.
func (v *Vault) Deposit(from asset.Address, amount int64) error {
	const op = "deposit"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if from.IsZero() || amount < 0 {
		return v.rejected(op, fmt.Errorf("deposit from=%s amount=%d: %w", from, amount, vaulterr.ErrInvalidArgument))
	}
	if err := v.led.Transfer(asset.Native, from, v.addr, amount); err != nil {
		return v.rejected(op, err)
	}

	v.emit(event.TypeDeposit, event.Deposit{Asset: asset.Native, From: from, Amount: amount})
	v.updateCustody(asset.Native)
	v.applied(op, start)
	return nil
}

// DepositToken pulls a fungible asset from the caller into custody.
// The caller must have approved the vault beforehand. Unrestricted.
func (v *Vault) DepositToken(from asset.Address, a asset.Asset, amount int64) error {
	const op = "deposit_token"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if a.IsZero() || a.IsNative() {
		return v.rejected(op, fmt.Errorf("deposit asset %s: %w", a, vaulterr.ErrInvalidArgument))
	}
	if from.IsZero() || amount < 0 {
		return v.rejected(op, fmt.Errorf("deposit from=%s amount=%d: %w", from, amount, vaulterr.ErrInvalidArgument))
	}
	if err := v.led.TransferFrom(a, v.addr, from, v.addr, amount); err != nil {
		return v.rejected(op, err)
	}

	v.emit(event.TypeDeposit, event.Deposit{Asset: a, From: from, Amount: amount})
	v.updateCustody(a)
	v.applied(op, start)
	return nil
}

// Withdraw moves custodied funds to an external recipient. Requires
// RoleTreasury. A native-coin delivery failure fails the whole
// operation with no state change.
func (v *Vault) Withdraw(caller asset.Address, a asset.Asset, amount int64, recipient asset.Address) error {
	const op = "withdraw"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if err := v.roles.Require(caller, authz.RoleTreasury); err != nil {
		return v.rejected(op, err)
	}
	if recipient.IsZero() || a.IsZero() || amount < 0 {
		return v.rejected(op, fmt.Errorf("withdraw %d of %s to %s: %w", amount, a, recipient, vaulterr.ErrInvalidArgument))
	}
	if v.BalanceOf(a) < amount {
		return v.rejected(op, fmt.Errorf("withdraw %d of %s (custody %d): %w",
			amount, a, v.BalanceOf(a), vaulterr.ErrInsufficientFunds))
	}
	if err := v.led.Transfer(a, v.addr, recipient, amount); err != nil {
		return v.rejected(op, err)
	}

	v.emit(event.TypeWithdrawal, event.Withdrawal{Asset: a, To: recipient, Amount: amount})
	v.updateCustody(a)
	v.applied(op, start)
	return nil
}

// RegisterAdapter records a new adapter mapping. Requires RoleAdmin.
func (v *Vault) RegisterAdapter(caller asset.Address, id registry.ID, ep registry.Endpoint) error {
	const op = "register_adapter"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if err := v.reg.Register(caller, id, ep); err != nil {
		return v.rejected(op, err)
	}

	v.emit(event.TypeAdapterRegistered, event.AdapterRegistered{ID: id, Endpoint: ep.Addr})
	v.applied(op, start)
	return nil
}

// RemoveAdapter deletes an adapter mapping. Requires RoleAdmin.
func (v *Vault) RemoveAdapter(caller asset.Address, id registry.ID) error {
	const op = "remove_adapter"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if err := v.reg.Remove(caller, id); err != nil {
		return v.rejected(op, err)
	}

	v.emit(event.TypeAdapterRemoved, event.AdapterRemoved{ID: id})
	v.applied(op, start)
	return nil
}

// ApproveForAdapter pre-authorizes a registered adapter to draw from
// custody. Requires RoleExecutor; the target must be registered.
func (v *Vault) ApproveForAdapter(caller asset.Address, id registry.ID, a asset.Asset, amount int64) error {
	const op = "approve_adapter"
	exit, err := v.enter(op)
	if err != nil {
		return err
	}
	defer exit()
	start := time.Now()

	if err := v.roles.Require(caller, authz.RoleExecutor); err != nil {
		return v.rejected(op, err)
	}
	ep, ok := v.reg.Get(id)
	if !ok {
		return v.rejected(op, fmt.Errorf("adapter %s: %w", id, vaulterr.ErrNotFound))
	}
	if err := v.led.Approve(a, v.addr, ep.Addr, amount); err != nil {
		return v.rejected(op, err)
	}

	v.applied(op, start)
	return nil
}

// ExecuteSwap resolves the adapter, pre-authorizes it to draw the
// input (attached value for native, approval for tokens), and invokes
// its typed swap entry. Requires RoleExecutor. Any failure inside the
// adapter or venue rolls back all asset movement of this operation.
func (v *Vault) ExecuteSwap(ctx context.Context, caller asset.Address, id registry.ID, req adapter.SwapRequest) (int64, error) {
	const op = "execute_swap"
	exit, err := v.enter(op)
	if err != nil {
		return 0, err
	}
	defer exit()
	start := time.Now()

	if err := v.roles.Require(caller, authz.RoleExecutor); err != nil {
		return 0, v.rejected(op, err)
	}
	ep, ok := v.reg.Get(id)
	if !ok {
		return 0, v.rejected(op, fmt.Errorf("adapter %s: %w", id, vaulterr.ErrNotFound))
	}
	if err := req.Validate(); err != nil {
		return 0, v.rejected(op, err)
	}
	if v.BalanceOf(req.InputAsset) < req.AmountIn {
		return 0, v.rejected(op, fmt.Errorf("swap input %d of %s (custody %d): %w",
			req.AmountIn, req.InputAsset, v.BalanceOf(req.InputAsset), vaulterr.ErrInsufficientFunds))
	}

	snap := v.led.Snapshot()

	if req.InputAsset.IsNative() {
		// Native input travels as attached value.
		if err := v.led.Transfer(asset.Native, v.addr, ep.Addr, req.AmountIn); err != nil {
			v.led.Restore(snap)
			return 0, v.rejected(op, err)
		}
	} else {
		if err := v.led.Approve(req.InputAsset, v.addr, ep.Addr, req.AmountIn); err != nil {
			v.led.Restore(snap)
			return 0, v.rejected(op, err)
		}
	}

	amountOut, err := ep.Adapter.Swap(ctx, v.addr, req)
	if err != nil {
		v.led.Restore(snap)
		return 0, v.rejected(op, fmt.Errorf("adapter %s: %w", id, err))
	}

	v.emit(event.TypeSwapExecuted, event.SwapExecuted{
		AdapterID:   id,
		InputAsset:  req.InputAsset,
		OutputAsset: req.OutputAsset,
		AmountIn:    req.AmountIn,
		AmountOut:   amountOut,
	})
	if v.metrics != nil {
		v.metrics.SwapAmountOut.Add(float64(amountOut))
	}
	v.updateCustody(req.InputAsset)
	v.updateCustody(req.OutputAsset)
	v.applied(op, start)
	return amountOut, nil
}

// onNativeReceive observes native transfers into the vault. During an
// in-flight operation the movement is solicited and the operation
// emits its own events; outside one it is an unsolicited deposit.
func (v *Vault) onNativeReceive(from asset.Address, amount int64) error {
	if v.busy {
		return nil
	}
	v.emit(event.TypeDeposit, event.Deposit{Asset: asset.Native, From: from, Amount: amount})
	return nil
}

func (v *Vault) emit(t event.Type, payload interface{}) {
	v.seq++
	env := event.Envelope{
		Sequence:    v.seq,
		OperationID: uuid.New(),
		Type:        t,
		Timestamp:   time.Now(),
		Payload:     payload,
	}

	v.log.Debug().
		Int64("sequence", env.Sequence).
		Str("type", t.String()).
		Msg("audit event")

	if v.persistChan != nil {
		v.persistChan <- env
	}
	if v.publishChan != nil {
		select {
		case v.publishChan <- env:
		default:
			if v.metrics != nil {
				v.metrics.AuditPublishDrops.Inc()
			}
		}
	}
	if v.metrics != nil {
		v.metrics.AuditSequence.Set(float64(v.seq))
	}
}

// Sequence returns the last assigned audit sequence.
func (v *Vault) Sequence() int64 {
	return v.seq
}

// ResumeSequence continues audit numbering from the highest durably
// written sequence. Called once at startup, before the command loop
// starts.
func (v *Vault) ResumeSequence(last int64) {
	if last > v.seq {
		v.seq = last
	}
}

func (v *Vault) updateCustody(a asset.Asset) {
	if v.metrics != nil {
		v.metrics.CustodyBalance.WithLabelValues(a.String()).Set(float64(v.BalanceOf(a)))
	}
}

func (v *Vault) applied(op string, start time.Time) {
	if v.metrics != nil {
		v.metrics.OpsApplied.WithLabelValues(op).Inc()
		v.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (v *Vault) reject(op string, err error) {
	if v.metrics != nil {
		v.metrics.OpsRejected.WithLabelValues(op, vaulterr.Reason(err)).Inc()
	}
	v.log.Warn().Str("op", op).Err(err).Msg("operation rejected")
}

// rejected records the rejection and passes the error through.
func (v *Vault) rejected(op string, err error) error {
	v.reject(op, err)
	return err
}
