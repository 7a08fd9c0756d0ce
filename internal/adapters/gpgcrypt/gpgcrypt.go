//nolint:gci,gofumpt
package gpgcrypt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	goopenpgp "github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/gopenpgp/v2/crypto"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements EncryptPort using gopenpgp's streaming API, so a
// multi-gigabyte leaf artifact never has to sit fully in memory. The
// backup system this engine replaces had no ENCRYPT tag at all; this
// is new ground, so there is no prior in-repo convention to follow
// beyond the streaming-writer pattern gopenpgp itself exposes.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new gpgcrypt adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("gpgcrypt adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Encrypt reads srcPath and writes its OpenPGP-encrypted form to
// destPath. keyMaterial is a passphrase for EncryptSymmetric or an
// armored public key for EncryptAsymmetric.
func (a *Adapter) Encrypt(ctx context.Context, srcPath, destPath string, method usecase.EncryptMethod, keyMaterial []byte) error {
	in, err := os.Open(srcPath) // #nosec G304 -- srcPath is engine-controlled scratch space
	if err != nil {
		return fmt.Errorf("open %q: %w", srcPath, err)
	}
	defer in.Close()

	out, err := os.Create(destPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %q: %w", destPath, err)
	}
	defer out.Close()

	meta := crypto.NewPlainMessageMetadata(true, filepath.Base(srcPath), 0)

	var writer io.WriteCloser
	switch method {
	case usecase.EncryptSymmetric:
		hints := &goopenpgp.FileHints{IsBinary: meta.IsBinary, FileName: meta.Filename}
		cfg := &packet.Config{DefaultCipher: packet.CipherAES256}
		writer, err = goopenpgp.SymmetricallyEncrypt(out, keyMaterial, hints, cfg)
	case usecase.EncryptAsymmetric:
		key, keyErr := crypto.NewKeyFromArmored(string(keyMaterial))
		if keyErr != nil {
			return fmt.Errorf("parse recipient public key: %w", keyErr)
		}
		keyRing, ringErr := crypto.NewKeyRing(key)
		if ringErr != nil {
			return fmt.Errorf("build recipient key ring: %w", ringErr)
		}
		writer, err = keyRing.EncryptStream(out, meta, nil)
	default:
		return fmt.Errorf("unknown encryption method %v", method)
	}
	if err != nil {
		return fmt.Errorf("open encrypt stream for %q: %w", srcPath, err)
	}

	if _, err := io.Copy(writer, readerWithContext{ctx: ctx, r: in}); err != nil {
		writer.Close()
		return fmt.Errorf("encrypt %q: %w", srcPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize encrypted stream for %q: %w", destPath, err)
	}
	return out.Sync()
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
