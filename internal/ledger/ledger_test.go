package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"VaultCore/internal/asset"
	"VaultCore/internal/ledger"
	"VaultCore/internal/vaulterr"
)

var (
	usd   = asset.FromName("usd-stable")
	alice = asset.AddressFromName("alice")
	bob   = asset.AddressFromName("bob")
)

// ============================================================================
// Test: balances and transfers
// ============================================================================

func TestBalance_InitialZero(t *testing.T) {
	led := ledger.New()
	if got := led.BalanceOf(alice, usd); got != 0 {
		t.Errorf("initial balance should be 0, got %d", got)
	}
}

func TestMint_CreditsHolder(t *testing.T) {
	led := ledger.New()
	if err := led.Mint(alice, usd, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := led.BalanceOf(alice, usd); got != 1_000 {
		t.Errorf("got %d, want 1000", got)
	}
}

func TestMint_RejectsNegativeAndNull(t *testing.T) {
	led := ledger.New()
	if err := led.Mint(alice, usd, -1); !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("negative mint: got %v, want ErrInvalidArgument", err)
	}
	if err := led.Mint(asset.Address{}, usd, 1); !errors.Is(err, vaulterr.ErrInvalidArgument) {
		t.Errorf("null holder: got %v, want ErrInvalidArgument", err)
	}
}

func TestTransfer_MovesBalance(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 500)

	if err := led.Transfer(usd, alice, bob, 200); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := led.BalanceOf(alice, usd); got != 300 {
		t.Errorf("sender: got %d, want 300", got)
	}
	if got := led.BalanceOf(bob, usd); got != 200 {
		t.Errorf("recipient: got %d, want 200", got)
	}
}

func TestTransfer_ZeroAmountAllowed(t *testing.T) {
	led := ledger.New()
	if err := led.Transfer(usd, alice, bob, 0); err != nil {
		t.Errorf("zero transfer should succeed, got %v", err)
	}
}

func TestTransfer_Overdraw(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 100)

	err := led.Transfer(usd, alice, bob, 101)
	if !errors.Is(err, vaulterr.ErrInsufficientFunds) {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
	if got := led.BalanceOf(alice, usd); got != 100 {
		t.Errorf("failed transfer must not change balance, got %d", got)
	}
}

// ============================================================================
// Test: allowances
// ============================================================================

func TestApprove_ExactSet(t *testing.T) {
	led := ledger.New()
	led.Approve(usd, alice, bob, 100)
	led.Approve(usd, alice, bob, 40)

	if got := led.Allowance(usd, alice, bob); got != 40 {
		t.Errorf("re-approve should overwrite, got %d", got)
	}
}

func TestTransferFrom_WithinAllowance(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 500)
	led.Approve(usd, alice, bob, 300)

	if err := led.TransferFrom(usd, bob, alice, bob, 200); err != nil {
		t.Fatalf("transfer-from: %v", err)
	}
	if got := led.BalanceOf(bob, usd); got != 200 {
		t.Errorf("recipient: got %d, want 200", got)
	}
	if got := led.Allowance(usd, alice, bob); got != 100 {
		t.Errorf("allowance should decrement to 100, got %d", got)
	}
}

func TestTransferFrom_ExceedsAllowance(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 500)
	led.Approve(usd, alice, bob, 100)

	err := led.TransferFrom(usd, bob, alice, bob, 101)
	if !errors.Is(err, vaulterr.ErrInsufficientFunds) {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferFrom_AllowanceKeptOnFailedTransfer(t *testing.T) {
	led := ledger.New()
	// Allowance exceeds balance; the transfer itself fails.
	led.Mint(alice, usd, 50)
	led.Approve(usd, alice, bob, 100)

	if err := led.TransferFrom(usd, bob, alice, bob, 80); err == nil {
		t.Fatal("expected failure")
	}
	if got := led.Allowance(usd, alice, bob); got != 100 {
		t.Errorf("allowance must not decrement on failure, got %d", got)
	}
}

// ============================================================================
// Test: native receive hooks
// ============================================================================

func TestReceiveHook_ObservesNativeDelivery(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, asset.Native, 100)

	var gotFrom asset.Address
	var gotAmount int64
	led.SetReceiveHook(bob, func(from asset.Address, amount int64) error {
		gotFrom = from
		gotAmount = amount
		return nil
	})

	if err := led.Transfer(asset.Native, alice, bob, 60); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if gotFrom != alice || gotAmount != 60 {
		t.Errorf("hook saw from=%s amount=%d", gotFrom, gotAmount)
	}
}

func TestReceiveHook_FailureBlocksDelivery(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, asset.Native, 100)
	led.SetReceiveHook(bob, func(asset.Address, int64) error {
		return fmt.Errorf("refused")
	})

	err := led.Transfer(asset.Native, alice, bob, 60)
	if !errors.Is(err, vaulterr.ErrExternalCall) {
		t.Errorf("got %v, want ErrExternalCall", err)
	}
	if got := led.BalanceOf(alice, asset.Native); got != 100 {
		t.Errorf("sender balance must be unchanged, got %d", got)
	}
	if got := led.BalanceOf(bob, asset.Native); got != 0 {
		t.Errorf("recipient balance must be unchanged, got %d", got)
	}
}

func TestReceiveHook_NotConsultedForTokens(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 100)
	led.SetReceiveHook(bob, func(asset.Address, int64) error {
		return fmt.Errorf("refused")
	})

	if err := led.Transfer(usd, alice, bob, 60); err != nil {
		t.Errorf("token transfer should bypass native hook, got %v", err)
	}
}

// ============================================================================
// Test: snapshot and restore
// ============================================================================

func TestSnapshotRestore_RollsBackBalancesAndAllowances(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 500)
	led.Approve(usd, alice, bob, 100)

	snap := led.Snapshot()

	led.Transfer(usd, alice, bob, 400)
	led.Approve(usd, alice, bob, 7)
	led.Restore(snap)

	if got := led.BalanceOf(alice, usd); got != 500 {
		t.Errorf("balance after restore: got %d, want 500", got)
	}
	if got := led.BalanceOf(bob, usd); got != 0 {
		t.Errorf("recipient after restore: got %d, want 0", got)
	}
	if got := led.Allowance(usd, alice, bob); got != 100 {
		t.Errorf("allowance after restore: got %d, want 100", got)
	}
}

func TestSnapshot_IsolatedFromLaterMutation(t *testing.T) {
	led := ledger.New()
	led.Mint(alice, usd, 500)

	snap := led.Snapshot()
	led.Mint(alice, usd, 500)
	led.Restore(snap)

	if got := led.BalanceOf(alice, usd); got != 500 {
		t.Errorf("got %d, want 500", got)
	}
}
