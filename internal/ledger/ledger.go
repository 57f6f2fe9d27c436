package ledger

import (
	"fmt"

	"VaultCore/internal/asset"
	"VaultCore/internal/vaulterr"
)

// BalanceKey addresses one holder's balance of one asset.
type BalanceKey struct {
	Holder asset.Address
	Asset  asset.Asset
}

type allowanceKey struct {
	Asset   asset.Asset
	Owner   asset.Address
	Spender asset.Address
}

// ReceiveFunc gates native-coin delivery to a holder. It runs before
// the transfer is applied; a non-nil error fails the whole transfer
// with no state change.
type ReceiveFunc func(from asset.Address, amount int64) error

// Ledger is the asset book shared by every holder the vault interacts
// with: the vault itself, adapters, venues, and external principals.
// A holder's custodied balance is exactly what the book reports — no
// phantom accounting. Mutation happens only through Mint, Transfer,
// and TransferFrom; the vault serializes all operations, so the book
// carries no locking of its own.
type Ledger struct {
	balances   map[BalanceKey]int64
	allowances map[allowanceKey]int64
	hooks      map[asset.Address]ReceiveFunc
}

func New() *Ledger {
	return &Ledger{
		balances:   make(map[BalanceKey]int64),
		allowances: make(map[allowanceKey]int64),
		hooks:      make(map[asset.Address]ReceiveFunc),
	}
}

// BalanceOf returns the holder's current balance of an asset.
func (l *Ledger) BalanceOf(holder asset.Address, a asset.Asset) int64 {
	return l.balances[BalanceKey{Holder: holder, Asset: a}]
}

// Mint credits newly issued units to a holder. Issuance happens outside
// the custody core's control; this exists so the surrounding process
// and tests can endow accounts.
func (l *Ledger) Mint(holder asset.Address, a asset.Asset, amount int64) error {
	if holder.IsZero() || a.IsZero() {
		return fmt.Errorf("mint: %w", vaulterr.ErrInvalidArgument)
	}
	if amount < 0 {
		return fmt.Errorf("mint amount %d: %w", amount, vaulterr.ErrInvalidArgument)
	}
	l.balances[BalanceKey{Holder: holder, Asset: a}] += amount
	return nil
}

// Transfer moves amount of an asset between holders. For the native
// coin, a receive hook registered for the recipient is consulted first;
// a hook failure fails the transfer with no state change.
func (l *Ledger) Transfer(a asset.Asset, from, to asset.Address, amount int64) error {
	if a.IsZero() || from.IsZero() || to.IsZero() {
		return fmt.Errorf("transfer: %w", vaulterr.ErrInvalidArgument)
	}
	if amount < 0 {
		return fmt.Errorf("transfer amount %d: %w", amount, vaulterr.ErrInvalidArgument)
	}

	fromKey := BalanceKey{Holder: from, Asset: a}
	if l.balances[fromKey] < amount {
		return fmt.Errorf("transfer %d of %s from %s (have %d): %w",
			amount, a, from, l.balances[fromKey], vaulterr.ErrInsufficientFunds)
	}

	if a.IsNative() {
		if hook := l.hooks[to]; hook != nil {
			if err := hook(from, amount); err != nil {
				return fmt.Errorf("native delivery to %s: %v: %w", to, err, vaulterr.ErrExternalCall)
			}
		}
	}

	l.balances[fromKey] -= amount
	l.balances[BalanceKey{Holder: to, Asset: a}] += amount
	return nil
}

// Approve sets the exact amount a spender may draw from the owner via
// TransferFrom. Re-approving overwrites the previous allowance.
func (l *Ledger) Approve(a asset.Asset, owner, spender asset.Address, amount int64) error {
	if a.IsZero() || owner.IsZero() || spender.IsZero() {
		return fmt.Errorf("approve: %w", vaulterr.ErrInvalidArgument)
	}
	if amount < 0 {
		return fmt.Errorf("approve amount %d: %w", amount, vaulterr.ErrInvalidArgument)
	}
	l.allowances[allowanceKey{Asset: a, Owner: owner, Spender: spender}] = amount
	return nil
}

// Allowance returns what spender may still draw from owner.
func (l *Ledger) Allowance(a asset.Asset, owner, spender asset.Address) int64 {
	return l.allowances[allowanceKey{Asset: a, Owner: owner, Spender: spender}]
}

// TransferFrom performs a pull-based transfer: spender draws amount of
// the owner's balance, within the granted allowance. The allowance is
// decremented only when the transfer succeeds.
func (l *Ledger) TransferFrom(a asset.Asset, spender, owner, to asset.Address, amount int64) error {
	if spender.IsZero() {
		return fmt.Errorf("transfer-from: %w", vaulterr.ErrInvalidArgument)
	}
	key := allowanceKey{Asset: a, Owner: owner, Spender: spender}
	if l.allowances[key] < amount {
		return fmt.Errorf("allowance %d < %d for spender %s: %w",
			l.allowances[key], amount, spender, vaulterr.ErrInsufficientFunds)
	}
	if err := l.Transfer(a, owner, to, amount); err != nil {
		return err
	}
	l.allowances[key] -= amount
	return nil
}

// SetReceiveHook installs a native-coin delivery gate for a holder.
// The vault uses this to observe unsolicited incoming transfers;
// recipients that cannot receive native coin are modeled by a hook
// returning an error.
func (l *Ledger) SetReceiveHook(holder asset.Address, fn ReceiveFunc) {
	if fn == nil {
		delete(l.hooks, holder)
		return
	}
	l.hooks[holder] = fn
}

// Balances returns a copy of all balances, for audit and tests.
func (l *Ledger) Balances() map[BalanceKey]int64 {
	out := make(map[BalanceKey]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Snapshot captures balances and allowances for atomic rollback of a
// multi-step operation. Receive hooks are not part of asset state and
// are not captured.
type Snapshot struct {
	balances   map[BalanceKey]int64
	allowances map[allowanceKey]int64
}

func (l *Ledger) Snapshot() *Snapshot {
	s := &Snapshot{
		balances:   make(map[BalanceKey]int64, len(l.balances)),
		allowances: make(map[allowanceKey]int64, len(l.allowances)),
	}
	for k, v := range l.balances {
		s.balances[k] = v
	}
	for k, v := range l.allowances {
		s.allowances[k] = v
	}
	return s
}

// Restore rolls the book back to a previously captured snapshot.
func (l *Ledger) Restore(s *Snapshot) {
	l.balances = make(map[BalanceKey]int64, len(s.balances))
	for k, v := range s.balances {
		l.balances[k] = v
	}
	l.allowances = make(map[allowanceKey]int64, len(s.allowances))
	for k, v := range s.allowances {
		l.allowances[k] = v
	}
}
