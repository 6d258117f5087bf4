// Package deps turns discovered shared library version requirements into
// Debian dependency constraints.
package deps

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
)

// libraryPackages maps ELF library names to the Debian packages that ship
// them. The table only covers libraries whose absence would break runtime
// loading; anything else is dropped on purpose.
var libraryPackages = map[string]string{
	"GLIBC": "libc6",
	"GCC":   "libgcc1",
}

// Constraints renders one "package (>= version)" constraint per mapped
// library. Libraries without a table entry are silently dropped.
func Constraints(libVersions map[string]*semver.Version) []string {
	var constraints []string
	for library, version := range libVersions {
		pkg, ok := libraryPackages[library]
		if !ok {
			logrus.Debugf("No package mapping for library %s, dropping", library)
			continue
		}
		constraints = append(constraints, fmt.Sprintf("%s (>= %s)", pkg, version.Original()))
	}
	return constraints
}

// Merge combines discovered and static constraints, deduplicates them and
// returns the result sorted lexically, ready for the Depends field.
func Merge(discovered, static []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, constraint := range append(append([]string{}, discovered...), static...) {
		if seen[constraint] {
			continue
		}
		seen[constraint] = true
		merged = append(merged, constraint)
	}
	sort.Strings(merged)
	return merged
}
