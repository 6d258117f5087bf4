// Package stage assembles staging trees and drives the external archiver
// over them. The assembler keeps a record of everything it stages so the
// checksum manifest and installed size are computed over exactly the file
// set that lands in the archive.
package stage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ralt/debforge/internal/compose"
	"github.com/ralt/debforge/internal/models"
	"github.com/ralt/debforge/internal/toolbox"
	"github.com/sirupsen/logrus"
)

// checksumChunkSize is the read buffer used when digesting staged files.
const checksumChunkSize = 1024

// Compression selects the archiver mode for a staging tree.
type Compression string

const (
	CompressXZ   Compression = "-cJ"
	CompressGzip Compression = "-cz"
)

// stagedFile records one file placed in the staging tree. Generated files
// keep their bytes so they can be digested from memory.
type stagedFile struct {
	path    string
	abs     string
	content []byte
}

// Assembler stages files into one directory tree and archives it.
type Assembler struct {
	runner toolbox.Runner
	dir    string
	staged []stagedFile
}

// NewAssembler creates an assembler rooted at dir and creates the
// directory.
func NewAssembler(runner toolbox.Runner, dir string) (*Assembler, error) {
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Assembler{runner: runner, dir: dir}, nil
}

// Dir returns the staging directory root.
func (a *Assembler) Dir() string {
	return a.dir
}

// StagedPath returns the on-disk location of an installed relative path.
func (a *Assembler) StagedPath(target string) string {
	return filepath.Join(a.dir, target)
}

// StageCopies copies each source file (relative to rootDir) to its
// installed relative path, in deterministic (target, source) order, and
// strips staged copies whose target is in the strip set.
func (a *Assembler) StageCopies(ctx context.Context, rootDir string, files map[string]string, strip map[string]bool) error {
	sources := make([]string, 0, len(files))
	for source := range files {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool {
		if files[sources[i]] != files[sources[j]] {
			return files[sources[i]] < files[sources[j]]
		}
		return sources[i] < sources[j]
	})

	for _, source := range sources {
		target := files[source]
		sourcePath := filepath.Join(rootDir, source)
		targetPath := a.StagedPath(target)

		logrus.Debugf("Staging %s -> %s", sourcePath, target)
		if err := CopyFile(sourcePath, targetPath); err != nil {
			return &models.BuildError{
				Type: models.ErrStageCopy,
				Path: sourcePath,
				Err:  err,
			}
		}

		if strip[target] {
			if _, err := a.runner.Run(ctx, "", toolbox.ToolStrip, targetPath); err != nil {
				return err
			}
		}

		a.staged = append(a.staged, stagedFile{path: target, abs: targetPath})
	}
	return nil
}

// StageGenerated writes in-memory documents at their installed relative
// paths. The strip mechanism is uniform with copies, although generated
// files are not expected to need it.
func (a *Assembler) StageGenerated(ctx context.Context, docs []compose.Document, strip map[string]bool) error {
	for _, doc := range docs {
		targetPath := a.StagedPath(doc.Path)
		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", doc.Path, err)
		}
		if err := os.WriteFile(targetPath, doc.Content, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.Path, err)
		}

		if strip[doc.Path] {
			if _, err := a.runner.Run(ctx, "", toolbox.ToolStrip, targetPath); err != nil {
				return err
			}
		}

		a.staged = append(a.staged, stagedFile{path: doc.Path, abs: targetPath, content: doc.Content})
	}
	return nil
}

// Archive runs the external archiver over the whole staging tree, writing
// name one level above it. Entry ownership is forced to root:root so the
// archive bytes do not depend on the building user.
func (a *Assembler) Archive(ctx context.Context, mode Compression, name string) error {
	_, err := a.runner.Run(ctx, a.dir, toolbox.ToolTar,
		string(mode),
		"-f", filepath.Join("..", name),
		"--owner=root:0",
		"--group=root:0",
		".",
	)
	return err
}

// Checksums digests every staged file and returns the per-file entries
// plus the total staged byte size. Copied files are streamed in fixed-size
// chunks; generated files are digested from memory.
func (a *Assembler) Checksums() ([]models.ChecksumEntry, int64, error) {
	entries := make([]models.ChecksumEntry, 0, len(a.staged))
	var totalSize int64

	for _, staged := range a.staged {
		var entry models.ChecksumEntry
		if staged.content != nil {
			sum := md5.Sum(staged.content)
			entry = models.ChecksumEntry{
				Path: staged.path,
				MD5:  hex.EncodeToString(sum[:]),
				Size: int64(len(staged.content)),
			}
		} else {
			digest, size, err := digestFile(staged.abs)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to digest %s: %w", staged.path, err)
			}
			entry = models.ChecksumEntry{Path: staged.path, MD5: digest, Size: size}
		}
		entries = append(entries, entry)
		totalSize += entry.Size
	}

	return entries, totalSize, nil
}

// CopyFile copies src to dst byte for byte, creating parent directories.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return dstFile.Sync()
}

// digestFile streams a file through md5 and returns the hex digest and
// the file size.
func digestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, checksumChunkSize)
	size, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}
