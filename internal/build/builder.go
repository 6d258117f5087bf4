// Package build orchestrates a full package build: version resolution,
// document composition, architecture detection, payload and control
// archive assembly, and final container concatenation.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ralt/debforge/internal/compose"
	"github.com/ralt/debforge/internal/deps"
	"github.com/ralt/debforge/internal/elf"
	"github.com/ralt/debforge/internal/models"
	"github.com/ralt/debforge/internal/stage"
	"github.com/ralt/debforge/internal/toolbox"
	"github.com/sirupsen/logrus"
)

// debFormatVersion is the container format marker, newline included.
const debFormatVersion = "2.0\n"

// dateFormat is passed to the external date tool; it yields an RFC 2822
// style date with a numeric UTC offset.
const dateFormat = "+%a, %d %b %Y %H:%M:%S %z"

// archAll marks an architecture-independent package.
const archAll = "all"

// Builder assembles one package from a static configuration.
type Builder struct {
	cfg    *models.BuildConfig
	runner toolbox.Runner
}

// NewBuilder creates a builder for the given configuration.
func NewBuilder(cfg *models.BuildConfig, runner toolbox.Runner) *Builder {
	return &Builder{cfg: cfg, runner: runner}
}

// Build runs the whole pipeline and returns the name of the produced
// package file. The first error aborts the build; the working directory
// is removed on every exit path.
func (b *Builder) Build(ctx context.Context) (string, error) {
	version, err := b.resolveVersion(ctx)
	if err != nil {
		return "", err
	}
	logrus.Infof("Building %s version %s", b.cfg.Name, version)

	date, err := b.resolveDate(ctx)
	if err != nil {
		return "", err
	}

	docs, err := b.composeDocuments(version, date)
	if err != nil {
		return "", err
	}

	arch, err := b.resolveArch()
	if err != nil {
		return "", err
	}
	logrus.Infof("Package architecture: %s", arch)

	workDir, err := os.MkdirTemp("", "debforge-")
	if err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := os.WriteFile(filepath.Join(workDir, "debian-binary"), []byte(debFormatVersion), 0644); err != nil {
		return "", fmt.Errorf("failed to write format marker: %w", err)
	}

	dataTree, err := b.buildDataArchive(ctx, workDir, docs)
	if err != nil {
		return "", err
	}

	if err := b.buildControlArchive(ctx, workDir, dataTree, version, arch); err != nil {
		return "", err
	}

	debName := fmt.Sprintf("%s_%s_%s.deb", b.cfg.Name, version, arch)
	logrus.Infof("Assembling container %s", debName)
	_, err = b.runner.Run(ctx, workDir, toolbox.ToolAr,
		"rcD",
		debName,
		"debian-binary",
		"control.tar.gz",
		"data.tar.xz",
	)
	if err != nil {
		return "", err
	}

	if err := stage.CopyFile(filepath.Join(workDir, debName), filepath.Join(b.cfg.RootDir, debName)); err != nil {
		return "", fmt.Errorf("failed to copy package out: %w", err)
	}

	logrus.Infof("Package built: %s", debName)
	return debName, nil
}

// resolveVersion asks the revision counter for the package version. The
// value is resolved once and reused everywhere it must match.
func (b *Builder) resolveVersion(ctx context.Context) (string, error) {
	output, err := b.runner.Run(ctx, b.cfg.RootDir, toolbox.ToolGit, "rev-list", "--count", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(output), "\n"), nil
}

// resolveDate asks the external date formatter for the changelog date.
func (b *Builder) resolveDate(ctx context.Context) (string, error) {
	output, err := b.runner.Run(ctx, "", toolbox.ToolDate, dateFormat)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(output), "\n"), nil
}

// composeDocuments renders the changelog and copyright files destined for
// the payload tree's documentation directory.
func (b *Builder) composeDocuments(version, date string) ([]compose.Document, error) {
	changelog, err := compose.Changelog(b.cfg, version, date)
	if err != nil {
		return nil, fmt.Errorf("failed to compose changelog: %w", err)
	}

	docDir := compose.DocDir(b.cfg.Name)
	return []compose.Document{
		{Path: docDir + "/changelog.gz", Content: changelog},
		{Path: docDir + "/copyright", Content: compose.Copyright(b.cfg)},
	}, nil
}

// resolveArch detects the package architecture from the configured
// executable, or reports "all" for architecture-independent packages.
func (b *Builder) resolveArch() (string, error) {
	if b.cfg.ArchSourceFile == "" {
		return archAll, nil
	}
	return elf.ReadMachine(filepath.Join(b.cfg.RootDir, b.cfg.ArchSourceFile))
}

// buildDataArchive stages the payload tree and archives it as
// data.tar.xz. The returned assembler keeps the staged-file record the
// control archive's checksums are computed from.
func (b *Builder) buildDataArchive(ctx context.Context, workDir string, docs []compose.Document) (*stage.Assembler, error) {
	logrus.Info("Staging payload tree...")
	assembler, err := stage.NewAssembler(b.runner, filepath.Join(workDir, "data"))
	if err != nil {
		return nil, err
	}

	strip := b.cfg.StripSet()
	if err := assembler.StageCopies(ctx, b.cfg.RootDir, b.cfg.Files, strip); err != nil {
		return nil, err
	}
	if err := assembler.StageGenerated(ctx, docs, strip); err != nil {
		return nil, err
	}

	if err := assembler.Archive(ctx, stage.CompressXZ, "data.tar.xz"); err != nil {
		return nil, err
	}
	return assembler, nil
}

// buildControlArchive computes checksums and installed size over the
// payload tree, discovers shared library dependencies from the staged
// binaries, renders the control descriptor and md5sums manifest, and
// archives them as control.tar.gz.
func (b *Builder) buildControlArchive(ctx context.Context, workDir string, dataTree *stage.Assembler, version, arch string) error {
	logrus.Info("Staging control tree...")
	entries, totalSize, err := dataTree.Checksums()
	if err != nil {
		return err
	}

	libVersions := make(map[string]*semver.Version)
	targets := make([]string, len(b.cfg.DependencyTargets))
	copy(targets, b.cfg.DependencyTargets)
	sort.Strings(targets)
	for _, target := range targets {
		if err := elf.VersionNeeds(ctx, b.runner, dataTree.StagedPath(target), libVersions); err != nil {
			return err
		}
	}
	depends := deps.Merge(deps.Constraints(libVersions), b.cfg.Dependencies)

	control := compose.Control(b.cfg, version, arch, totalSize/1024, depends)
	manifest := compose.MD5Manifest(entries)

	assembler, err := stage.NewAssembler(b.runner, filepath.Join(workDir, "control"))
	if err != nil {
		return err
	}
	docs := []compose.Document{
		{Path: "control", Content: control},
		{Path: "md5sums", Content: manifest},
	}
	if err := assembler.StageGenerated(ctx, docs, nil); err != nil {
		return err
	}

	return assembler.Archive(ctx, stage.CompressGzip, "control.tar.gz")
}
