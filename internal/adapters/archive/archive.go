//nolint:gci,gofumpt
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements ArchivePort using the standard library's tar
// writer for the container format and klauspost/compress's gzip for
// the COMPRESS tag, which trades a little extra CPU for meaningfully
// faster throughput than compress/gzip on multi-gigabyte leaves.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new archive adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("archive adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// PackDir tars the contents of srcDir recursively into destTarPath.
func (a *Adapter) PackDir(ctx context.Context, srcDir, destTarPath string) error {
	out, err := os.Create(destTarPath) // #nosec G304 -- destTarPath is engine-controlled scratch space
	if err != nil {
		return fmt.Errorf("create tar %q: %w", destTarPath, err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == srcDir {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return addFSEntry(tw, path, rel, info)
	})
	if err != nil {
		return fmt.Errorf("pack dir %q: %w", srcDir, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar %q: %w", destTarPath, err)
	}
	return out.Sync()
}

// PackFiles tars the named files, resolved under baseDir, into
// destTarPath at the container's top level (no subdirectory nesting).
func (a *Adapter) PackFiles(ctx context.Context, baseDir string, names []string, destTarPath string) error {
	out, err := os.Create(destTarPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("create tar %q: %w", destTarPath, err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path := filepath.Join(baseDir, name)
		info, err := os.Lstat(path)
		if err != nil {
			return fmt.Errorf("stat %q: %w", path, err)
		}
		if err := addFSEntry(tw, path, name, info); err != nil {
			return fmt.Errorf("pack file %q: %w", path, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar %q: %w", destTarPath, err)
	}
	return out.Sync()
}

// Gzip compresses srcPath into destPath, leaving srcPath untouched.
func (a *Adapter) Gzip(ctx context.Context, srcPath, destPath string) error {
	in, err := os.Open(srcPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("open %q: %w", srcPath, err)
	}
	defer in.Close()

	out, err := os.Create(destPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %q: %w", destPath, err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return fmt.Errorf("gzip %q: %w", srcPath, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gzip writer for %q: %w", destPath, err)
	}
	return out.Sync()
}

// OpenBag opens a new uncompressed tar container for the single-pass
// bag-assembly step.
func (a *Adapter) OpenBag(ctx context.Context, destPath string) (usecase.BagWriter, error) {
	out, err := os.Create(destPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("create bag %q: %w", destPath, err)
	}
	return &bagWriter{file: out, tw: tar.NewWriter(out)}, nil
}

type bagWriter struct {
	file *os.File
	tw   *tar.Writer
}

func (w *bagWriter) AddFile(ctx context.Context, innerName, srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("stat %q: %w", srcPath, err)
	}
	return addFSEntry(w.tw, srcPath, innerName, info)
}

func (w *bagWriter) AddDir(ctx context.Context, innerPrefix, srcDir string) error {
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == srcDir {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		innerName := rel
		if innerPrefix != "" {
			innerName = innerPrefix + "/" + rel
		}
		return addFSEntry(w.tw, path, innerName, info)
	})
}

func (w *bagWriter) Close() error {
	tarErr := w.tw.Close()
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	if tarErr != nil {
		return fmt.Errorf("close bag tar writer: %w", tarErr)
	}
	if syncErr != nil {
		return fmt.Errorf("sync bag file: %w", syncErr)
	}
	return closeErr
}

// addFSEntry writes one filesystem entry (file, dir, or symlink) to tw
// under innerName, following the same header/body convention for
// every caller (PackDir, PackFiles, BagWriter).
func addFSEntry(tw *tar.Writer, path, innerName string, info os.FileInfo) error {
	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return fmt.Errorf("readlink %q: %w", path, err)
		}
		link = target
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("build tar header for %q: %w", path, err)
	}
	hdr.Name = filepath.ToSlash(innerName)

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header for %q: %w", path, err)
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			return fmt.Errorf("open %q: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("write tar body for %q: %w", path, err)
		}
	}
	return nil
}
