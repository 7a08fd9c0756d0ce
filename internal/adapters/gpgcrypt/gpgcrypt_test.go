//nolint:gci,gofumpt
package gpgcrypt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	goopenpgp "github.com/ProtonMail/go-crypto/openpgp"

	"github.com/arumata/glacierbag/internal/usecase"
)

func decryptStreamWithPassword(r io.Reader, password []byte) (io.Reader, error) {
	firstTimeCalled := true
	prompt := func(keys []goopenpgp.Key, symmetric bool) ([]byte, error) {
		if firstTimeCalled {
			firstTimeCalled = false
			return password, nil
		}
		return nil, errors.New("wrong password in symmetric decryption")
	}
	md, err := goopenpgp.ReadMessage(r, goopenpgp.EntityList{}, prompt, nil)
	if err != nil {
		return nil, err
	}
	return md.UnverifiedBody, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncrypt_SymmetricRoundTrip(t *testing.T) {
	t.Parallel()
	adapter := New(testLogger())
	dir := t.TempDir()
	passphrase := []byte("correct horse battery staple")

	src := filepath.Join(dir, "bundle.tar")
	payload := "leaf artifact payload bytes"
	if err := os.WriteFile(src, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "bundle.tar.gpg")
	if err := adapter.Encrypt(context.Background(), src, dest, usecase.EncryptSymmetric, passphrase); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	encrypted, err := os.ReadFile(dest) // #nosec G304
	if err != nil {
		t.Fatal(err)
	}
	if string(encrypted) == payload {
		t.Fatal("output is not encrypted")
	}

	in, err := os.Open(dest) // #nosec G304
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	reader, err := decryptStreamWithPassword(in, passphrase)
	if err != nil {
		t.Fatalf("open decrypt stream: %v", err)
	}
	round, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(round) != payload {
		t.Errorf("round trip = %q, want %q", round, payload)
	}
}

func TestEncrypt_AsymmetricRejectsGarbageKey(t *testing.T) {
	t.Parallel()
	adapter := New(testLogger())
	dir := t.TempDir()
	src := filepath.Join(dir, "bundle.tar")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := adapter.Encrypt(context.Background(), src, filepath.Join(dir, "out.gpg"), usecase.EncryptAsymmetric, []byte("not an armored key"))
	if err == nil {
		t.Fatal("expected error for unparseable recipient key")
	}
}

func TestEncrypt_MissingSourceFails(t *testing.T) {
	t.Parallel()
	adapter := New(testLogger())
	err := adapter.Encrypt(context.Background(), filepath.Join(t.TempDir(), "gone"), filepath.Join(t.TempDir(), "out.gpg"), usecase.EncryptSymmetric, []byte("pw"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
