package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	phc, err := HashPassword("s3cret-pass", DefaultArgonParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}

	if !VerifyPassword("s3cret-pass", phc) {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword("wrong-pass", phc) {
		t.Error("expected wrong password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("   ", DefaultArgonParams()); err == nil {
		t.Error("expected error for blank password")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-phc",
		"$bcrypt$something",
		"$argon2id$v=19$m=bad$salt$key",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$key",
	}
	for _, phc := range cases {
		if VerifyPassword("anything", phc) {
			t.Errorf("malformed hash %q must not verify", phc)
		}
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same-pass", DefaultArgonParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := HashPassword("same-pass", DefaultArgonParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password must not share a salt")
	}
}
