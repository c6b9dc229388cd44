package auth

import "testing"

func TestHashAndVerifyToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("super-secret-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "" || hash == "super-secret-token" {
		t.Fatalf("hash must be non-empty and not the plaintext")
	}

	if !VerifyToken("super-secret-token", hash) {
		t.Fatalf("expected token to verify against its own hash")
	}
	if VerifyToken("wrong-token", hash) {
		t.Fatalf("wrong token must not verify")
	}
}

func TestHashToken_RejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashToken("   "); err == nil {
		t.Fatalf("expected error for blank token")
	}
}

func TestVerifyToken_EmptyInputs(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if VerifyToken("", hash) {
		t.Fatalf("empty token must not verify")
	}
	if VerifyToken("token", "") {
		t.Fatalf("empty hash must not verify")
	}
}
