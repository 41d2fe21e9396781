package auth

import (
	"context"
	"errors"
	"testing"
)

func TestVerifyUseCase_DisabledAllowsAll(t *testing.T) {
	uc, err := NewVerifyUseCase("   ")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if uc.Enabled() {
		t.Fatalf("expected guard disabled for empty key")
	}
	if err := uc.Execute(context.Background(), VerifyRequest{}); err != nil {
		t.Fatalf("expected nil error when disabled, got %v", err)
	}
}

func TestVerifyUseCase_Success(t *testing.T) {
	uc, err := NewVerifyUseCase("s3cret")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := uc.Execute(context.Background(), VerifyRequest{OperatorKey: " s3cret "}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestVerifyUseCase_InvalidKey(t *testing.T) {
	uc, _ := NewVerifyUseCase("s3cret")
	if err := uc.Execute(context.Background(), VerifyRequest{OperatorKey: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyUseCase_MissingKey(t *testing.T) {
	uc, _ := NewVerifyUseCase("s3cret")
	if err := uc.Execute(context.Background(), VerifyRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCredentialHash_SaltMatters(t *testing.T) {
	a := credentialHash([]byte("a"), "key")
	b := credentialHash([]byte("b"), "key")
	if string(a) == string(b) {
		t.Fatalf("expected different hashes for different salts")
	}
}
