package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeLength   = 8
)

var accessCodeLimit = big.NewInt(int64(len(accessCodeAlphabet)))

// generateAccessCode returns a uniformly random code over [A-Z0-9].
func generateAccessCode() (string, error) {
	var b strings.Builder
	b.Grow(accessCodeLength)
	for i := 0; i < accessCodeLength; i++ {
		n, err := rand.Int(rand.Reader, accessCodeLimit)
		if err != nil {
			return "", fmt.Errorf("generate access code: %w", err)
		}
		b.WriteByte(accessCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// issueAccessCode returns a fresh plaintext code and its bcrypt hash.
func issueAccessCode() (code, hash string, err error) {
	code, err = generateAccessCode()
	if err != nil {
		return "", "", err
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash access code: %w", err)
	}
	return code, string(raw), nil
}
