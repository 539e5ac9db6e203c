package backup

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("the household ledger")

	sealed, err := Seal(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed output contains plaintext")
	}

	opened, err := Open(sealed, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := Open(sealed, "wrong"); err == nil {
		t.Error("Open() with wrong passphrase succeeded, want error")
	}
}

func TestOpenTamperedPayload(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "pass")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Open(sealed, "pass"); err == nil {
		t.Error("Open() with tampered payload succeeded, want error")
	}
}

func TestOpenTruncatedPayload(t *testing.T) {
	if _, err := Open([]byte("short"), "pass"); err == nil {
		t.Error("Open() with truncated payload succeeded, want error")
	}
}

func TestSealUniqueOutput(t *testing.T) {
	a, err := Seal([]byte("same input"), "pass")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	b, err := Seal([]byte("same input"), "pass")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two Seal() calls produced identical output")
	}
}
