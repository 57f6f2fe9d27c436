// Package registry maps adapter identifiers to adapter endpoints. The
// identifier is a fixed-size handle derived deterministically from the
// adapter's human-readable name, so callers can compute it off-band
// without querying the registry.
package registry

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"VaultCore/internal/adapter"
	"VaultCore/internal/asset"
	"VaultCore/internal/authz"
	"VaultCore/internal/vaulterr"
)

// ID is an opaque adapter identifier.
type ID [32]byte

// DeriveID computes the identifier for a human-readable adapter name.
func DeriveID(name string) ID {
	return ID(sha256.Sum256([]byte(name)))
}

func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	return base58.Encode(id[:])
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode adapter id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return fmt.Errorf("adapter id %q: want %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)
	return nil
}

// Endpoint binds an adapter's address handle to its implementation.
type Endpoint struct {
	Addr    asset.Address
	Adapter adapter.Adapter
}

// Registry is the explicit store of registered adapters, owned by the
// vault and passed by handle into every operation. Mutations are gated
// on RoleAdmin; it is only ever touched from the single active
// operation context.
type Registry struct {
	roles     *authz.Authority
	endpoints map[ID]Endpoint
	ids       []ID
}

func New(roles *authz.Authority) *Registry {
	return &Registry{
		roles:     roles,
		endpoints: make(map[ID]Endpoint),
	}
}

// Register records a new adapter mapping. Fails with ErrAlreadyExists
// if the id is taken and ErrInvalidArgument for a null endpoint.
func (r *Registry) Register(caller asset.Address, id ID, ep Endpoint) error {
	if err := r.roles.Require(caller, authz.RoleAdmin); err != nil {
		return err
	}
	if id.IsZero() || ep.Addr.IsZero() || ep.Adapter == nil {
		return fmt.Errorf("register adapter: %w", vaulterr.ErrInvalidArgument)
	}
	if _, ok := r.endpoints[id]; ok {
		return fmt.Errorf("adapter %s: %w", id, vaulterr.ErrAlreadyExists)
	}
	r.endpoints[id] = ep
	r.ids = append(r.ids, id)
	return nil
}

// Remove deletes an adapter mapping. The enumeration order after a
// removal has no semantic meaning (swap-and-truncate).
func (r *Registry) Remove(caller asset.Address, id ID) error {
	if err := r.roles.Require(caller, authz.RoleAdmin); err != nil {
		return err
	}
	if _, ok := r.endpoints[id]; !ok {
		return fmt.Errorf("adapter %s: %w", id, vaulterr.ErrNotFound)
	}
	delete(r.endpoints, id)
	for i := range r.ids {
		if r.ids[i] == id {
			last := len(r.ids) - 1
			r.ids[i] = r.ids[last]
			r.ids = r.ids[:last]
			break
		}
	}
	return nil
}

// Get is a pure lookup; the second return is false if the id is absent.
func (r *Registry) Get(id ID) (Endpoint, bool) {
	ep, ok := r.endpoints[id]
	return ep, ok
}

// List returns all currently registered identifiers. The order is not
// stable across removals.
func (r *Registry) List() []ID {
	out := make([]ID, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.endpoints)
}
