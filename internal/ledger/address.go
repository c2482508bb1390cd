package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const defaultProgramSeed = "match-escrow/registry"

// DefaultProgramID is used when no registry program ID is configured.
func DefaultProgramID() solana.PublicKey {
	var key solana.PublicKey
	sum := sha256.Sum256([]byte(defaultProgramSeed))
	copy(key[:], sum[:])
	return key
}

// ParseProgramID parses a configured program ID, falling back to the default
// when empty.
func ParseProgramID(s string) (solana.PublicKey, error) {
	if s == "" {
		return DefaultProgramID(), nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", s, err)
	}
	return key, nil
}

// DeriveAddress finds the program-derived address for seeds.
func DeriveAddress(programID solana.PublicKey, seeds ...[]byte) (string, error) {
	pda, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return "", fmt.Errorf("failed to derive address: %w", err)
	}
	return pda.String(), nil
}

// Uint64Seed encodes n as an 8-byte big-endian seed.
func Uint64Seed(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
