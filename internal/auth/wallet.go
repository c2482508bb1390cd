package auth

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// DecodeSignature accepts a base58 signature, falling back to hex.
func DecodeSignature(s string) (solana.Signature, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		raw, err = hex.DecodeString(s)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("%w: not base58 or hex", ErrInvalidSignature)
		}
	}

	var sig solana.Signature
	if len(raw) != len(sig) {
		return solana.Signature{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, len(sig), len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}

// VerifyWalletSignature checks that signature is the wallet's ed25519
// signature over message.
func VerifyWalletSignature(walletAddress, signature string, message []byte) error {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}

	sig, err := DecodeSignature(signature)
	if err != nil {
		return err
	}

	if !sig.Verify(pubKey, message) {
		return ErrInvalidSignature
	}
	return nil
}
