package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	ErrInvalidRequest     = errors.New("invalid auth request")
	ErrInvalidCredentials = errors.New("invalid operator credentials")
)

type VerifyRequest struct {
	OperatorKey string
}

// VerifyUseCase guards manual farm control. Only a salted hash of the
// configured key is kept in memory. A zero VerifyUseCase lets every request
// through.
type VerifyUseCase struct {
	salt []byte
	hash []byte
}

func NewVerifyUseCase(operatorKey string) (VerifyUseCase, error) {
	operatorKey = strings.TrimSpace(operatorKey)
	if operatorKey == "" {
		return VerifyUseCase{}, nil
	}
	salt, err := randomBytes(16)
	if err != nil {
		return VerifyUseCase{}, err
	}
	return VerifyUseCase{salt: salt, hash: credentialHash(salt, operatorKey)}, nil
}

func (u VerifyUseCase) Enabled() bool {
	return len(u.hash) > 0
}

func (u VerifyUseCase) Execute(_ context.Context, req VerifyRequest) error {
	if !u.Enabled() {
		return nil
	}
	req.OperatorKey = strings.TrimSpace(req.OperatorKey)
	if req.OperatorKey == "" {
		return ErrInvalidRequest
	}
	got := credentialHash(u.salt, req.OperatorKey)
	if subtle.ConstantTimeCompare(got, u.hash) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func credentialHash(salt []byte, key string) []byte {
	b := make([]byte, 0, len(salt)+len(key))
	b = append(b, salt...)
	b = append(b, key...)
	sum := sha256.Sum256(b)
	return sum[:]
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
