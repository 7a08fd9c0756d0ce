//nolint:gci,gofumpt
package sshmirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kr/fs"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements RemoteSyncPort over SFTP, mirroring one remote
// leaf subtree into a local scratch directory (§4.2). Authentication
// is by private key only — the engine runs unattended, so
// password/interactive auth is out of scope.
type Adapter struct {
	logger         *slog.Logger
	privateKeyPath string
	dialTimeout    time.Duration
}

// New creates a new SSH/SFTP mirror adapter. privateKeyPath is the
// unencrypted key used for every remote target.
func New(logger *slog.Logger, privateKeyPath string) *Adapter {
	if logger == nil {
		panic("sshmirror adapter requires logger")
	}
	return &Adapter{logger: logger, privateKeyPath: privateKeyPath, dialTimeout: 30 * time.Second}
}

// remoteFS is the slice of the SFTP client the mirror loop needs: the
// kr/fs walking surface (the same one sftp.Client.Walk is built on)
// plus file opens.
type remoteFS interface {
	fs.FileSystem
	Open(path string) (io.ReadCloser, error)
}

// sftpFS adapts *sftp.Client to remoteFS.
type sftpFS struct {
	*sftp.Client
}

func (s sftpFS) Open(path string) (io.ReadCloser, error) {
	return s.Client.Open(path)
}

// MirrorLeaf copies remotePath's contents (recursively, skipping
// entries that match excludes) into scratchDir, publishing progress
// samples as it goes. A per-entry walk failure (vanished file,
// permission error) is warned about and the walk continues, but the
// stage as a whole still fails so the caller never packs a silently
// partial copy.
func (a *Adapter) MirrorLeaf(ctx context.Context, target usecase.RemoteTarget, remotePath, scratchDir string, excludes []string, sink usecase.ProgressSink) error {
	client, closeFn, err := a.dial(ctx, target)
	if err != nil {
		return fmt.Errorf("dial %s@%s: %w", target.User, target.Host, err)
	}
	defer closeFn()

	return a.mirror(ctx, sftpFS{client}, remotePath, scratchDir, excludes, sink)
}

func (a *Adapter) mirror(ctx context.Context, remote remoteFS, remotePath, scratchDir string, excludes []string, sink usecase.ProgressSink) error {
	walker := fs.WalkFS(remotePath, remote)
	var total int64
	for walker.Step() {
		if walker.Err() != nil {
			continue
		}
		if !walker.Stat().IsDir() && !excluded(walker.Path(), excludes) {
			total += walker.Stat().Size()
		}
	}

	var copied int64
	var entryErrs int
	var firstEntryErr error
	walker = fs.WalkFS(remotePath, remote)
	for walker.Step() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := walker.Err(); err != nil {
			a.logger.WarnContext(ctx, "sftp walk entry failed", "path", walker.Path(), "error", err)
			entryErrs++
			if firstEntryErr == nil {
				firstEntryErr = err
			}
			continue
		}
		if excluded(walker.Path(), excludes) {
			if walker.Stat().IsDir() {
				walker.SkipDir()
			}
			continue
		}

		rel, err := filepathRel(remotePath, walker.Path())
		if err != nil {
			return fmt.Errorf("relativize %q: %w", walker.Path(), err)
		}
		localPath := filepath.Join(scratchDir, filepath.FromSlash(rel))

		if walker.Stat().IsDir() {
			if err := os.MkdirAll(localPath, 0o750); err != nil {
				return fmt.Errorf("mkdir %q: %w", localPath, err)
			}
			continue
		}

		if err := copyRemoteFile(ctx, remote, walker.Path(), localPath); err != nil {
			return fmt.Errorf("copy %q: %w", walker.Path(), err)
		}
		copied += walker.Stat().Size()
		if sink != nil {
			sink.Publish(usecase.ProgressEvent{Phase: "stage", Label: rel, Current: copied, Total: total})
		}
	}

	// Entries that vanished or were unreadable mid-walk make the mirror
	// incomplete; the caller must not treat this scratch dir as a full
	// copy of the leaf (§4.2).
	if entryErrs > 0 {
		return fmt.Errorf("%d walk entr%s failed, first: %w: %w",
			entryErrs, pluralY(entryErrs), firstEntryErr, usecase.ErrRemoteStage)
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func (a *Adapter) dial(ctx context.Context, target usecase.RemoteTarget) (*sftp.Client, func(), error) {
	keyData, err := os.ReadFile(a.privateKeyPath) // #nosec G304 -- operator-configured key path
	if err != nil {
		return nil, nil, fmt.Errorf("read private key %q: %w", a.privateKeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}

	port := target.Port
	if port == "" {
		port = "22"
	}
	clientConfig := &ssh.ClientConfig{
		User:            target.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // unattended host, no interactive TOFU prompt available
		Timeout:         a.dialTimeout,
	}

	dialer := net.Dialer{Timeout: a.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target.Host, port))
	if err != nil {
		return nil, nil, fmt.Errorf("tcp dial: %w", err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, net.JoinHostPort(target.Host, port), clientConfig)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("ssh handshake: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, fmt.Errorf("start sftp session: %w", err)
	}

	return sftpClient, func() {
		sftpClient.Close()
		sshClient.Close()
	}, nil
}

func copyRemoteFile(ctx context.Context, remote remoteFS, remotePath, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(localPath), err)
	}
	src, err := remote.Open(remotePath)
	if err != nil {
		return fmt.Errorf("open remote %q: %w", remotePath, err)
	}
	defer src.Close()

	dst, err := os.Create(localPath) // #nosec G304 -- localPath is confined to the caller's scratch dir
	if err != nil {
		return fmt.Errorf("create local %q: %w", localPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, readerWithContext{ctx: ctx, r: src}); err != nil {
		return fmt.Errorf("stream %q: %w", remotePath, err)
	}
	return dst.Sync()
}

// readerWithContext aborts a long Copy promptly on cancellation
// without requiring a custom loop at every call site.
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

func excluded(remotePath string, excludes []string) bool {
	for _, pattern := range excludes {
		if pattern != "" && strings.Contains(remotePath, pattern) {
			return true
		}
	}
	return false
}

func filepathRel(base, target string) (string, error) {
	base = path.Clean(base)
	target = path.Clean(target)
	if !strings.HasPrefix(target, base) {
		return target, nil
	}
	rel := strings.TrimPrefix(target, base)
	return strings.TrimPrefix(rel, "/"), nil
}
