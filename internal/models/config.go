package models

// BuildConfig is the static configuration for a single package build.
// It is immutable for the whole run; the builder is a pure function of
// (config, filesystem, external tools).
type BuildConfig struct {
	// Package identity and control metadata
	Name        string `toml:"name"`
	Author      string `toml:"author"`
	AuthorYears string `toml:"author_years"`
	Homepage    string `toml:"homepage"`
	License     string `toml:"license"`
	Section     string `toml:"section"`
	Priority    string `toml:"priority"`

	ShortDescription string   `toml:"short_description"`
	LongDescription  []string `toml:"long_description"`

	// Static dependency constraints, merged with the ones discovered
	// from the binary before rendering the Depends field.
	Dependencies []string `toml:"dependencies"`

	// Files maps source paths (relative to RootDir) to their installed
	// relative paths inside the payload tree.
	Files map[string]string `toml:"files"`

	// StripTargets lists installed relative paths that get the symbol
	// stripper run on the staged copy.
	StripTargets []string `toml:"strip_targets"`

	// ArchSourceFile is the executable whose ELF header decides the
	// package architecture. Empty means architecture-independent ("all").
	ArchSourceFile string `toml:"arch_source_file"`

	// DependencyTargets lists installed relative paths whose symbol
	// version requirements are scanned for shared library dependencies.
	DependencyTargets []string `toml:"dependency_targets"`

	// RootDir anchors relative source paths and receives the final .deb.
	RootDir string `toml:"root_dir"`
}

// StripSet returns the strip targets as a set keyed by installed path.
func (c *BuildConfig) StripSet() map[string]bool {
	set := make(map[string]bool, len(c.StripTargets))
	for _, target := range c.StripTargets {
		set[target] = true
	}
	return set
}

// ChecksumEntry records the content digest and size of one staged file,
// keyed by its installed relative path.
type ChecksumEntry struct {
	Path string
	MD5  string
	Size int64
}
