package asset

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Asset identifies a fungible asset held in custody. Identifiers are
// opaque fixed-size handles assumed globally unique per asset. The zero
// value is the null asset and is never valid in a request.
type Asset [32]byte

// Native is the reserved identifier for the chain's native coin.
var Native = FromName("native")

// FromName derives an asset identifier deterministically from a
// human-readable name, so callers can compute it off-band.
func FromName(name string) Asset {
	return Asset(sha256.Sum256([]byte(name)))
}

func (a Asset) IsZero() bool {
	return a == Asset{}
}

func (a Asset) IsNative() bool {
	return a == Native
}

func (a Asset) String() string {
	return base58.Encode(a[:])
}

// ParseAsset decodes the base58 string form of an asset identifier.
func ParseAsset(s string) (Asset, error) {
	var a Asset
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode asset %q: %w", s, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("asset %q: want %d bytes, got %d", s, len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAsset(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Address identifies a principal or endpoint: a caller identity, the
// vault itself, an adapter, or a venue. The zero value is the null
// address.
type Address [32]byte

// AddressFromName derives an address handle from a human-readable name.
func AddressFromName(name string) Address {
	return Address(sha256.Sum256([]byte(name)))
}

func (ad Address) IsZero() bool {
	return ad == Address{}
}

func (ad Address) String() string {
	return base58.Encode(ad[:])
}

// ParseAddress decodes the base58 string form of an address.
func ParseAddress(s string) (Address, error) {
	var ad Address
	raw, err := base58.Decode(s)
	if err != nil {
		return ad, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(raw) != len(ad) {
		return ad, fmt.Errorf("address %q: want %d bytes, got %d", s, len(ad), len(raw))
	}
	copy(ad[:], raw)
	return ad, nil
}

func (ad Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(ad.String())
}

func (ad *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*ad = parsed
	return nil
}
