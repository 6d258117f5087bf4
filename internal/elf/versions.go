package elf

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ralt/debforge/internal/toolbox"
	"github.com/sirupsen/logrus"
)

// versionNeedsHeader starts the readelf section listing the symbol
// versions the binary requires from its shared libraries.
const versionNeedsHeader = "Version needs section '.gnu.version_r' contains "

// versionLineRe matches one requirement line inside the version needs
// section, capturing the library name and its dotted version.
var versionLineRe = regexp.MustCompile(`^\s+(?:0+|0x[0-9a-f]+):\s+Name: ([A-Z]+)_([0-9.]+)\s+Flags: .+\s+Version: .+$`)

// VersionNeeds runs readelf -V on path and merges the highest required
// version per library into libVersions. Extraction is best-effort: lines
// that do not match the expected shape are skipped, never an error.
func VersionNeeds(ctx context.Context, runner toolbox.Runner, path string, libVersions map[string]*semver.Version) error {
	output, err := runner.Run(ctx, "", toolbox.ToolReadelf, "-V", path)
	if err != nil {
		return err
	}

	ParseVersionNeeds(string(output), libVersions)
	return nil
}

// ParseVersionNeeds scans readelf -V output for the version needs section
// and records the highest version seen per library. Tuple components are
// compared numerically, so 2.10 ranks above 2.9.
func ParseVersionNeeds(output string, libVersions map[string]*semver.Version) {
	correctSection := false
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if !strings.HasPrefix(line, " ") {
			// section header
			correctSection = strings.HasPrefix(line, versionNeedsHeader)
			continue
		}

		if !correctSection {
			continue
		}

		m := versionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		library := m[1]
		// semver caps versions at three numeric components; glibc and
		// libgcc symbol versions never carry more, so anything longer
		// is skipped along with the otherwise unparseable.
		version, err := semver.NewVersion(m[2])
		if err != nil {
			logrus.Debugf("Skipping unparseable version %q for %s", m[2], library)
			continue
		}

		existing, ok := libVersions[library]
		if !ok || existing.LessThan(version) {
			libVersions[library] = version
		}
	}
}
