// Package inspect reads a built package back: the ar container walk, the
// control archive extraction and the control paragraph parsing. It backs
// the inspect command and the build verification tests.
package inspect

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Package holds what could be read back out of a .deb container.
type Package struct {
	FormatVersion string
	Name          string
	Version       string
	Architecture  string
	Maintainer    string
	Description   string
	Depends       []string

	// Fields keeps control fields without a dedicated member.
	Fields map[string]string

	// MD5Sums maps installed relative paths to their hex digests.
	MD5Sums map[string]string

	// DataPaths lists the installed relative paths found in the payload
	// archive.
	DataPaths []string

	// Control is the raw control descriptor text.
	Control []byte
}

// ReadPackage opens a .deb container and extracts the format marker, the
// control descriptor and the md5sums manifest.
func ReadPackage(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pkg := &Package{
		Fields:  make(map[string]string),
		MD5Sums: make(map[string]string),
	}

	// .deb files are ar archives
	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("failed to read ar magic: %w", err)
	}
	if string(header) != "!<arch>\n" {
		return nil, fmt.Errorf("not an ar archive: %s", path)
	}

	for {
		// Each ar entry starts with a 60-byte header
		arHeader := make([]byte, 60)
		if _, err := io.ReadFull(f, arHeader); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read ar header: %w", err)
		}

		// Filename is space padded; ar variants append a slash
		filename := strings.TrimRight(strings.TrimSpace(string(arHeader[0:16])), "/")

		sizeStr := strings.TrimSpace(string(arHeader[48:58]))
		var size int64
		fmt.Sscanf(sizeStr, "%d", &size)

		switch {
		case filename == "debian-binary":
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, err
			}
			pkg.FormatVersion = strings.TrimRight(string(data), "\n")
		case strings.HasPrefix(filename, "control.tar"):
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, err
			}
			if err := readControlArchive(pkg, data, filename); err != nil {
				return nil, err
			}
		case strings.HasPrefix(filename, "data.tar"):
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, err
			}
			if err := readDataArchive(pkg, data, filename); err != nil {
				return nil, err
			}
		default:
			if _, err := f.Seek(size, io.SeekCurrent); err != nil {
				return nil, err
			}
		}

		// Entries align to 2-byte boundaries
		if size%2 != 0 {
			f.Seek(1, io.SeekCurrent)
		}
	}

	if pkg.Control == nil {
		return nil, fmt.Errorf("control.tar not found in package")
	}

	return pkg, nil
}

// newTarReader opens a possibly compressed tar stream based on the
// archive member's extension. The returned closer releases the
// decompressor, if any.
func newTarReader(data []byte, filename string) (*tar.Reader, func(), error) {
	switch {
	case strings.HasSuffix(filename, ".gz"):
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gr), func() { gr.Close() }, nil
	case strings.HasSuffix(filename, ".xz"):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(xr), func() {}, nil
	case strings.HasSuffix(filename, ".zst"):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(zr), func() { zr.Close() }, nil
	default:
		return tar.NewReader(bytes.NewReader(data)), func() {}, nil
	}
}

// readControlArchive decompresses control.tar.* and pulls out the control
// descriptor and the md5sums manifest.
func readControlArchive(pkg *Package, data []byte, filename string) error {
	tarReader, closeReader, err := newTarReader(data, filename)
	if err != nil {
		return err
	}
	defer closeReader()

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		name := strings.TrimPrefix(header.Name, "./")
		switch name {
		case "control":
			content, err := io.ReadAll(tarReader)
			if err != nil {
				return err
			}
			pkg.Control = content
			parseControl(pkg, content)
		case "md5sums":
			content, err := io.ReadAll(tarReader)
			if err != nil {
				return err
			}
			parseMD5Sums(pkg, content)
		}
	}

	return nil
}

// readDataArchive lists the installed relative paths of the payload
// archive's regular files.
func readDataArchive(pkg *Package, data []byte, filename string) error {
	tarReader, closeReader, err := newTarReader(data, filename)
	if err != nil {
		return err
	}
	defer closeReader()

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		pkg.DataPaths = append(pkg.DataPaths, strings.TrimPrefix(header.Name, "./"))
	}

	return nil
}

// parseControl parses the control paragraph. Continuation lines fold into
// the previous field's value.
func parseControl(pkg *Package, data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey != "" {
			setField(pkg, currentKey, currentValue.String())
			currentKey = ""
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			currentValue.WriteString("\n")
			currentValue.WriteString(strings.TrimSpace(line))
			continue
		}

		flush()

		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			currentKey = strings.TrimSpace(parts[0])
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(parts[1]))
		}
	}
	flush()
}

// setField routes a control field to its Package member.
func setField(pkg *Package, key, value string) {
	switch key {
	case "Package":
		pkg.Name = value
	case "Version":
		pkg.Version = value
	case "Architecture":
		pkg.Architecture = value
	case "Maintainer":
		pkg.Maintainer = value
	case "Description":
		pkg.Description = value
	case "Depends":
		for _, dep := range strings.Split(value, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				pkg.Depends = append(pkg.Depends, dep)
			}
		}
	default:
		pkg.Fields[key] = value
	}
}

// parseMD5Sums parses "digest  path" manifest lines.
func parseMD5Sums(pkg *Package, data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			continue
		}
		pkg.MD5Sums[parts[1]] = parts[0]
	}
}
