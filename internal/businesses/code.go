package businesses

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	codePrefix   = "RP"
	codeAttempts = 5
)

type codeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// NewCode returns a random business code: RP followed by 8 uppercase hex
// characters.
func NewCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return codePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// UniqueCode draws codes until one is not taken.
func UniqueCode(ctx context.Context, repo codeChecker) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := NewCode()
		if err != nil {
			return "", err
		}
		taken, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free business code after %d attempts", codeAttempts)
}
