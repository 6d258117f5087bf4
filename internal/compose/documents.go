// Package compose renders the generated package documents: the control
// descriptor, the md5sums manifest, the changelog and the copyright file.
// All output is deterministic for a given version, metadata and date.
package compose

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/ralt/debforge/internal/models"
)

// Document is a generated file addressed by its installed relative path.
type Document struct {
	Path    string
	Content []byte
}

// DocDir returns the documentation directory for a package inside the
// payload tree.
func DocDir(name string) string {
	return fmt.Sprintf("usr/share/doc/%s", name)
}

// Changelog renders the single-entry changelog and compresses it with
// gzip. The gzip header's modification time is pinned to the epoch so
// the field encodes as zero and two runs with identical inputs produce
// byte-identical output no matter when they happen.
func Changelog(cfg *models.BuildConfig, version, date string) ([]byte, error) {
	var text bytes.Buffer
	fmt.Fprintf(&text, "%s (%s) unstable; urgency=medium\n", cfg.Name, version)
	text.WriteString("\n")
	text.WriteString("  * Just read the git log, no need to maintain a second changelog.\n")
	text.WriteString("\n")
	fmt.Fprintf(&text, " -- %s  %s\n", cfg.Author, date)

	var compressed bytes.Buffer
	w := gzip.NewWriter(&compressed)
	// The writer stamps uint32(ModTime.Unix()) into the header; the
	// zero-value time would encode as garbage, Unix(0, 0) as zero.
	w.ModTime = time.Unix(0, 0)
	if _, err := w.Write(text.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}

// Copyright renders the machine-readable copyright descriptor.
func Copyright(cfg *models.BuildConfig) []byte {
	var buf bytes.Buffer
	buf.WriteString("Format: https://www.debian.org/doc/packaging-manuals/copyright-format/1.0/\n")
	fmt.Fprintf(&buf, "Upstream-Name: %s\n", cfg.Name)
	fmt.Fprintf(&buf, "Upstream-Contact: %s\n", cfg.Author)
	fmt.Fprintf(&buf, "Source: %s\n", cfg.Homepage)
	buf.WriteString("\n")
	buf.WriteString("Files: *\n")
	fmt.Fprintf(&buf, "Copyright: %s %s\n", cfg.AuthorYears, cfg.Author)
	fmt.Fprintf(&buf, "License: %s\n", cfg.License)
	return buf.Bytes()
}

// Control renders the control descriptor. Field order is fixed and the
// long description is folded below the Description field.
func Control(cfg *models.BuildConfig, version, arch string, installedSizeKiB int64, depends []string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Package: %s\n", cfg.Name)
	fmt.Fprintf(&buf, "Source: %s\n", cfg.Name)
	fmt.Fprintf(&buf, "Version: %s\n", version)
	fmt.Fprintf(&buf, "Architecture: %s\n", arch)
	fmt.Fprintf(&buf, "Maintainer: %s\n", cfg.Author)
	fmt.Fprintf(&buf, "Installed-Size: %d\n", installedSizeKiB)
	fmt.Fprintf(&buf, "Depends: %s\n", strings.Join(depends, ", "))
	fmt.Fprintf(&buf, "Section: %s\n", cfg.Section)
	fmt.Fprintf(&buf, "Priority: %s\n", cfg.Priority)
	fmt.Fprintf(&buf, "Homepage: %s\n", cfg.Homepage)
	fmt.Fprintf(&buf, "Description: %s\n", cfg.ShortDescription)
	fmt.Fprintf(&buf, "%s\n", FoldDescription(cfg.LongDescription))
	return buf.Bytes()
}

// FoldDescription prefixes every long description line with a space. An
// empty line becomes " ." so it is not misread as a paragraph terminator.
func FoldDescription(lines []string) string {
	folded := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			folded[i] = " ."
		} else {
			folded[i] = " " + line
		}
	}
	return strings.Join(folded, "\n")
}

// MD5Manifest renders the md5sums file, one "digest  path" line per
// staged file, sorted by digest then path.
func MD5Manifest(entries []models.ChecksumEntry) []byte {
	sorted := make([]models.ChecksumEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MD5 != sorted[j].MD5 {
			return sorted[i].MD5 < sorted[j].MD5
		}
		return sorted[i].Path < sorted[j].Path
	})

	var buf bytes.Buffer
	for _, entry := range sorted {
		fmt.Fprintf(&buf, "%s  %s\n", entry.MD5, entry.Path)
	}
	return buf.Bytes()
}
