// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("serranito")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "serranito", true},
		{"wrong", "bocadillo", false},
		{"case differs", "Serranito", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("CheckPassword error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=19$garbage$AAAA$AAAA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$AAAA",
	} {
		_, err := CheckPassword("x", hash)
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("CheckPassword(%q) error = %v, want ErrInvalidHash", hash, err)
		}
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("service-key")
	if len(fp) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(fp))
	}
	if !MatchFingerprint("service-key", fp) {
		t.Error("MatchFingerprint rejected the matching key")
	}
	if !MatchFingerprint("service-key", strings.ToUpper(fp)) {
		t.Error("MatchFingerprint must ignore hex case")
	}
	if MatchFingerprint("other-key", fp) {
		t.Error("MatchFingerprint accepted a different key")
	}
	if MatchFingerprint("service-key", "") {
		t.Error("MatchFingerprint accepted an empty fingerprint")
	}
}
