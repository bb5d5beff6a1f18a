package service

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatalf("expected password to be hashed")
	}
	if !VerifyPassword("s3cret!", hash) {
		t.Fatalf("hash does not verify against original password")
	}
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if VerifyPassword("wrong horse", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	if VerifyPassword("anything", "not-a-bcrypt-digest") {
		t.Fatalf("malformed digest verified")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	h2, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected different digests for the same input")
	}
}
