package utils

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("dashboard-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == "dashboard-secret" {
		t.Error("hash should be non-empty and not the plaintext")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, _ := HashPassword("dashboard-secret")

	if !CheckPassword("dashboard-secret", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password should not verify")
	}
	if CheckPassword("dashboard-secret", "not-a-hash") {
		t.Error("garbage hash should not verify")
	}
}

func TestHashPassword_Unique(t *testing.T) {
	h1, _ := HashPassword("same")
	h2, _ := HashPassword("same")
	if h1 == h2 {
		t.Error("bcrypt hashes should be salted and differ")
	}
}
