package ingestion

import (
	"encoding/json"
	"fmt"

	"VaultCore/internal/asset"
	"VaultCore/internal/authz"
	"VaultCore/internal/registry"
)

// Command names. Each maps 1:1 to a command subject.
const (
	CmdDepositNative   = "DepositNative"
	CmdDepositToken    = "DepositToken"
	CmdWithdraw        = "Withdraw"
	CmdGrantRole       = "GrantRole"
	CmdRevokeRole      = "RevokeRole"
	CmdRegisterAdapter = "RegisterAdapter"
	CmdRemoveAdapter   = "RemoveAdapter"
	CmdApproveAdapter  = "ApproveAdapter"
	CmdExecuteSwap     = "ExecuteSwap"
)

// Command is a typed, validated vault command.
type Command interface {
	Name() string
}

type DepositNative struct {
	From   asset.Address
	Amount int64
}

func (DepositNative) Name() string { return CmdDepositNative }

type DepositToken struct {
	From   asset.Address
	Asset  asset.Asset
	Amount int64
}

func (DepositToken) Name() string { return CmdDepositToken }

type Withdraw struct {
	Caller    asset.Address
	Asset     asset.Asset
	Amount    int64
	Recipient asset.Address
}

func (Withdraw) Name() string { return CmdWithdraw }

type GrantRole struct {
	Caller    asset.Address
	Principal asset.Address
	Role      authz.Role
}

func (GrantRole) Name() string { return CmdGrantRole }

type RevokeRole struct {
	Caller    asset.Address
	Principal asset.Address
	Role      authz.Role
}

func (RevokeRole) Name() string { return CmdRevokeRole }

// RegisterAdapter binds a registry name to an adapter from the
// process-local catalog. The registry ID is derived from the name.
type RegisterAdapter struct {
	Caller  asset.Address
	ID      registry.ID
	Adapter string
}

func (RegisterAdapter) Name() string { return CmdRegisterAdapter }

type RemoveAdapter struct {
	Caller asset.Address
	ID     registry.ID
}

func (RemoveAdapter) Name() string { return CmdRemoveAdapter }

type ApproveAdapter struct {
	Caller asset.Address
	ID     registry.ID
	Asset  asset.Asset
	Amount int64
}

func (ApproveAdapter) Name() string { return CmdApproveAdapter }

type ExecuteSwap struct {
	Caller       asset.Address
	ID           registry.ID
	InputAsset   asset.Asset
	OutputAsset  asset.Asset
	AmountIn     int64
	MinAmountOut int64
	DeadlineUs   int64
	Commands     []json.RawMessage
}

func (ExecuteSwap) Name() string { return CmdExecuteSwap }

// ParseCommand converts a raw command (JSON bytes + command name) into
// a typed Command. Validation of business rules stays in the vault;
// the parser rejects only malformed wire data.
func ParseCommand(raw RawCommand, command string) (Command, error) {
	switch command {
	case CmdDepositNative:
		return parseDepositNative(raw.Data)
	case CmdDepositToken:
		return parseDepositToken(raw.Data)
	case CmdWithdraw:
		return parseWithdraw(raw.Data)
	case CmdGrantRole:
		return parseGrantRole(raw.Data)
	case CmdRevokeRole:
		return parseRevokeRole(raw.Data)
	case CmdRegisterAdapter:
		return parseRegisterAdapter(raw.Data)
	case CmdRemoveAdapter:
		return parseRemoveAdapter(raw.Data)
	case CmdApproveAdapter:
		return parseApproveAdapter(raw.Data)
	case CmdExecuteSwap:
		return parseExecuteSwap(raw.Data)
	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers. Addresses
// and assets travel as base58 strings; registry names as plain text.

type depositNativeJSON struct {
	From   string `json:"from"`
	Amount int64  `json:"amount"`
}

func parseDepositNative(data []byte) (DepositNative, error) {
	var j depositNativeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return DepositNative{}, fmt.Errorf("parse DepositNative: %w", err)
	}
	from, err := asset.ParseAddress(j.From)
	if err != nil {
		return DepositNative{}, fmt.Errorf("parse from: %w", err)
	}
	return DepositNative{From: from, Amount: j.Amount}, nil
}

type depositTokenJSON struct {
	From   string `json:"from"`
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

func parseDepositToken(data []byte) (DepositToken, error) {
	var j depositTokenJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return DepositToken{}, fmt.Errorf("parse DepositToken: %w", err)
	}
	from, err := asset.ParseAddress(j.From)
	if err != nil {
		return DepositToken{}, fmt.Errorf("parse from: %w", err)
	}
	a, err := asset.ParseAsset(j.Asset)
	if err != nil {
		return DepositToken{}, fmt.Errorf("parse asset: %w", err)
	}
	return DepositToken{From: from, Asset: a, Amount: j.Amount}, nil
}

type withdrawJSON struct {
	Caller    string `json:"caller"`
	Asset     string `json:"asset"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

func parseWithdraw(data []byte) (Withdraw, error) {
	var j withdrawJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Withdraw{}, fmt.Errorf("parse Withdraw: %w", err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return Withdraw{}, fmt.Errorf("parse caller: %w", err)
	}
	a, err := asset.ParseAsset(j.Asset)
	if err != nil {
		return Withdraw{}, fmt.Errorf("parse asset: %w", err)
	}
	recipient, err := asset.ParseAddress(j.Recipient)
	if err != nil {
		return Withdraw{}, fmt.Errorf("parse recipient: %w", err)
	}
	return Withdraw{Caller: caller, Asset: a, Amount: j.Amount, Recipient: recipient}, nil
}

type roleChangeJSON struct {
	Caller    string `json:"caller"`
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

func parseRoleChange(data []byte, command string) (asset.Address, asset.Address, authz.Role, error) {
	var j roleChangeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return asset.Address{}, asset.Address{}, 0, fmt.Errorf("parse %s: %w", command, err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return asset.Address{}, asset.Address{}, 0, fmt.Errorf("parse caller: %w", err)
	}
	principal, err := asset.ParseAddress(j.Principal)
	if err != nil {
		return asset.Address{}, asset.Address{}, 0, fmt.Errorf("parse principal: %w", err)
	}
	role, err := parseRole(j.Role)
	if err != nil {
		return asset.Address{}, asset.Address{}, 0, err
	}
	return caller, principal, role, nil
}

func parseGrantRole(data []byte) (GrantRole, error) {
	caller, principal, role, err := parseRoleChange(data, CmdGrantRole)
	if err != nil {
		return GrantRole{}, err
	}
	return GrantRole{Caller: caller, Principal: principal, Role: role}, nil
}

func parseRevokeRole(data []byte) (RevokeRole, error) {
	caller, principal, role, err := parseRoleChange(data, CmdRevokeRole)
	if err != nil {
		return RevokeRole{}, err
	}
	return RevokeRole{Caller: caller, Principal: principal, Role: role}, nil
}

func parseRole(s string) (authz.Role, error) {
	switch s {
	case "admin":
		return authz.RoleAdmin, nil
	case "treasury":
		return authz.RoleTreasury, nil
	case "executor":
		return authz.RoleExecutor, nil
	default:
		return 0, fmt.Errorf("unknown role: %q", s)
	}
}

type registerAdapterJSON struct {
	Caller  string `json:"caller"`
	Name    string `json:"name"`
	Adapter string `json:"adapter"`
}

func parseRegisterAdapter(data []byte) (RegisterAdapter, error) {
	var j registerAdapterJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return RegisterAdapter{}, fmt.Errorf("parse RegisterAdapter: %w", err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return RegisterAdapter{}, fmt.Errorf("parse caller: %w", err)
	}
	if j.Name == "" {
		return RegisterAdapter{}, fmt.Errorf("parse RegisterAdapter: empty name")
	}
	return RegisterAdapter{
		Caller:  caller,
		ID:      registry.DeriveID(j.Name),
		Adapter: j.Adapter,
	}, nil
}

type removeAdapterJSON struct {
	Caller string `json:"caller"`
	Name   string `json:"name"`
}

func parseRemoveAdapter(data []byte) (RemoveAdapter, error) {
	var j removeAdapterJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return RemoveAdapter{}, fmt.Errorf("parse RemoveAdapter: %w", err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return RemoveAdapter{}, fmt.Errorf("parse caller: %w", err)
	}
	if j.Name == "" {
		return RemoveAdapter{}, fmt.Errorf("parse RemoveAdapter: empty name")
	}
	return RemoveAdapter{Caller: caller, ID: registry.DeriveID(j.Name)}, nil
}

type approveAdapterJSON struct {
	Caller string `json:"caller"`
	Name   string `json:"name"`
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

func parseApproveAdapter(data []byte) (ApproveAdapter, error) {
	var j approveAdapterJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return ApproveAdapter{}, fmt.Errorf("parse ApproveAdapter: %w", err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return ApproveAdapter{}, fmt.Errorf("parse caller: %w", err)
	}
	if j.Name == "" {
		return ApproveAdapter{}, fmt.Errorf("parse ApproveAdapter: empty name")
	}
	a, err := asset.ParseAsset(j.Asset)
	if err != nil {
		return ApproveAdapter{}, fmt.Errorf("parse asset: %w", err)
	}
	return ApproveAdapter{
		Caller: caller,
		ID:     registry.DeriveID(j.Name),
		Asset:  a,
		Amount: j.Amount,
	}, nil
}

type executeSwapJSON struct {
	Caller       string            `json:"caller"`
	Name         string            `json:"name"`
	InputAsset   string            `json:"input_asset"`
	OutputAsset  string            `json:"output_asset"`
	AmountIn     int64             `json:"amount_in"`
	MinAmountOut int64             `json:"min_amount_out"`
	DeadlineUs   int64             `json:"deadline_us"`
	Commands     []json.RawMessage `json:"commands"`
}

func parseExecuteSwap(data []byte) (ExecuteSwap, error) {
	var j executeSwapJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return ExecuteSwap{}, fmt.Errorf("parse ExecuteSwap: %w", err)
	}
	caller, err := asset.ParseAddress(j.Caller)
	if err != nil {
		return ExecuteSwap{}, fmt.Errorf("parse caller: %w", err)
	}
	if j.Name == "" {
		return ExecuteSwap{}, fmt.Errorf("parse ExecuteSwap: empty name")
	}
	in, err := asset.ParseAsset(j.InputAsset)
	if err != nil {
		return ExecuteSwap{}, fmt.Errorf("parse input_asset: %w", err)
	}
	out, err := asset.ParseAsset(j.OutputAsset)
	if err != nil {
		return ExecuteSwap{}, fmt.Errorf("parse output_asset: %w", err)
	}
	return ExecuteSwap{
		Caller:       caller,
		ID:           registry.DeriveID(j.Name),
		InputAsset:   in,
		OutputAsset:  out,
		AmountIn:     j.AmountIn,
		MinAmountOut: j.MinAmountOut,
		DeadlineUs:   j.DeadlineUs,
		Commands:     j.Commands,
	}, nil
}
