package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	encoded, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}

	ok, err := VerifyPassword("admin123", encoded)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = VerifyPassword("wrong", encoded)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3$onlyfiveparts",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=banana,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	}
	for _, encoded := range cases {
		if _, err := VerifyPassword("x", encoded); err == nil {
			t.Fatalf("expected malformed hash %q to error", encoded)
		}
	}
}
