package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIssuer = "match-escrow"
	sessionTTL    = 24 * time.Hour
)

var (
	jwtSecret []byte

	ErrNoSecret        = errors.New("JWT secret not initialized")
	ErrNoWalletInToken = errors.New("token subject is not a wallet address")
)

// InitJWT initializes the JWT secret
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// Claims is a wallet session. The wallet address travels as the registered
// subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Wallet returns the authenticated wallet address.
func (c *Claims) Wallet() string {
	return c.Subject
}

// GenerateToken issues a session token for a verified wallet
func GenerateToken(walletAddress string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   walletAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	})

	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, issuer and expiry, and that the subject
// is a well-formed wallet address
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrNoSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if _, err := solana.PublicKeyFromBase58(claims.Wallet()); err != nil {
		return nil, ErrNoWalletInToken
	}
	return claims, nil
}
