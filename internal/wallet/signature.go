// Package wallet verifies signed player intents. Surrendering a match is
// irreversible, so it requires proof of intent: an ed25519 signature over
// a blake2b-256 digest of a canonical message bound to the match and the
// player.
package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SurrenderVerifier checks surrender signatures.
type SurrenderVerifier interface {
	VerifySurrender(address, matchID, signatureHex string) error
}

// SurrenderDigest is the message a client signs to surrender: the blake2b
// digest of "arena/surrender|<matchID>|<address>". Both sides computing the
// same bytes is what makes the signature binding.
func SurrenderDigest(address, matchID string) [32]byte {
	return blake2b.Sum256([]byte(fmt.Sprintf("arena/surrender|%s|%s", matchID, address)))
}

// KeyResolver maps a player address to its ed25519 public key. Kaspa-style
// addresses encode the key; the resolver hides the address codec.
type KeyResolver interface {
	PublicKey(address string) (ed25519.PublicKey, error)
}

// AddressKeyResolver reads the key out of the address itself: the payload
// after the network prefix is the hex-encoded ed25519 public key. Matches
// the address format the game clients issue.
type AddressKeyResolver struct{}

func (AddressKeyResolver) PublicKey(address string) (ed25519.PublicKey, error) {
	idx := strings.IndexByte(address, ':')
	if idx < 0 {
		return nil, fmt.Errorf("address %q has no network prefix", address)
	}
	raw, err := hex.DecodeString(address[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("address payload is not hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("address payload must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Verifier is the production SurrenderVerifier.
type Verifier struct {
	keys KeyResolver
}

// NewVerifier creates a Verifier over the given key resolver.
func NewVerifier(keys KeyResolver) *Verifier {
	return &Verifier{keys: keys}
}

func (v *Verifier) VerifySurrender(address, matchID, signatureHex string) error {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}

	pub, err := v.keys.PublicKey(address)
	if err != nil {
		return fmt.Errorf("resolve key for %s: %w", address, err)
	}

	digest := SurrenderDigest(address, matchID)
	if !ed25519.Verify(pub, digest[:], sig) {
		return fmt.Errorf("signature does not verify for %s", address)
	}
	return nil
}
