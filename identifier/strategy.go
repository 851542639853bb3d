// Package identifier assigns display identifiers to concepts.
package identifier

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in an identifier.
const Length = 8

// Strategy names accepted by StrategyFor.
const (
	StrategyRandom = "random"
	StrategyHash   = "hash"
)

// Strategy mints a candidate identifier for a concept key. attempt is 0 on
// the first call and increases after every collision.
type Strategy interface {
	Mint(key string, attempt int) (string, error)
}

// StrategyFor returns the strategy registered under name.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case "", StrategyRandom:
		return Random{}, nil
	case StrategyHash:
		return Hash{}, nil
	default:
		return nil, fmt.Errorf("unknown identifier strategy %q", name)
	}
}

// Random mints identifiers over [A-Z0-9] from a fresh UUID on every call.
// The same concept gets a different identifier on every run.
type Random struct{}

// Mint implements Strategy.
func (Random) Mint(string, int) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	// Low-order digits: the version and variant bits sit in the high bytes.
	s := base36(u[:])
	return s[len(s)-Length:], nil
}

// Hash derives identifiers from the SHA-256 of the concept key, encoded in
// base 36. The same key always yields the same identifier for a given
// attempt, so runs over the same graph are reproducible.
type Hash struct{}

// Mint implements Strategy.
func (Hash) Mint(key string, attempt int) (string, error) {
	input := key
	if attempt > 0 {
		input = fmt.Sprintf("%s#%d", key, attempt)
	}
	sum := sha256.Sum256([]byte(input))
	return base36(sum[:])[:Length], nil
}

// base36 encodes b as upper-case base 36, zero-padded to at least Length.
func base36(b []byte) string {
	s := strings.ToUpper(new(big.Int).SetBytes(b).Text(36))
	if len(s) < Length {
		s = strings.Repeat("0", Length-len(s)) + s
	}
	return s
}
