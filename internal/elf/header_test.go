package elf

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ralt/debforge/internal/models"
)

// writeHeader writes a minimal ELF header file and returns its path.
func writeHeader(t *testing.T, magic []byte, class, data, version byte, machine uint16) string {
	t.Helper()

	header := make([]byte, 20)
	copy(header[0:4], magic)
	header[4] = class
	header[5] = data
	header[6] = version
	// ABI, ABI version, padding and file type stay zero.
	switch data {
	case 2:
		binary.BigEndian.PutUint16(header[18:20], machine)
	default:
		binary.LittleEndian.PutUint16(header[18:20], machine)
	}

	path := filepath.Join(t.TempDir(), "binary")
	if err := os.WriteFile(path, header, 0755); err != nil {
		t.Fatalf("Failed to write header file: %v", err)
	}
	return path
}

func TestReadMachineArchitectures(t *testing.T) {
	cases := []struct {
		machine uint16
		arch    string
	}{
		{0x28, "armel"},
		{0x3E, "amd64"},
		{0xB7, "arm64"},
		{0x03, "i386"},
		{0x08, "mips64el"},
		{0x15, "ppc64el"},
		{0x16, "s390x"},
	}

	for _, tc := range cases {
		path := writeHeader(t, []byte("\x7FELF"), 2, 1, 1, tc.machine)
		arch, err := ReadMachine(path)
		if err != nil {
			t.Fatalf("ReadMachine(machine=%#04x) failed: %v", tc.machine, err)
		}
		if arch != tc.arch {
			t.Errorf("machine %#04x: got %s, want %s", tc.machine, arch, tc.arch)
		}
	}
}

func TestReadMachineBigEndian(t *testing.T) {
	// s390x is the only big-endian entry in the table; the machine field
	// must be read with the declared byte order.
	path := writeHeader(t, []byte("\x7FELF"), 2, 2, 1, 0x16)
	arch, err := ReadMachine(path)
	if err != nil {
		t.Fatalf("ReadMachine failed: %v", err)
	}
	if arch != "s390x" {
		t.Errorf("got %s, want s390x", arch)
	}
}

func TestReadMachineErrors(t *testing.T) {
	cases := []struct {
		name    string
		magic   []byte
		class   byte
		data    byte
		version byte
		machine uint16
		errType models.ErrorType
	}{
		{"bad magic", []byte("ELF\x7F"), 2, 1, 1, 0x3E, models.ErrInvalidFormat},
		{"32-bit", []byte("\x7FELF"), 1, 1, 1, 0x3E, models.ErrUnsupportedBitness},
		{"bad endianness", []byte("\x7FELF"), 2, 3, 1, 0x3E, models.ErrInvalidEndianness},
		{"bad version", []byte("\x7FELF"), 2, 1, 2, 0x3E, models.ErrUnsupportedVersion},
		{"unmapped machine", []byte("\x7FELF"), 2, 1, 1, 0xFFFF, models.ErrUnknownMachine},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeHeader(t, tc.magic, tc.class, tc.data, tc.version, tc.machine)
			_, err := ReadMachine(path)
			if err == nil {
				t.Fatalf("ReadMachine succeeded, want %s error", tc.errType)
			}
			var buildErr *models.BuildError
			if !errors.As(err, &buildErr) {
				t.Fatalf("error is not a BuildError: %v", err)
			}
			if buildErr.Type != tc.errType {
				t.Errorf("got error type %s, want %s", buildErr.Type, tc.errType)
			}
		})
	}
}

func TestReadMachineOpenFailure(t *testing.T) {
	_, err := ReadMachine(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("ReadMachine succeeded on a missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("open failure does not carry the I/O error: %v", err)
	}
	var buildErr *models.BuildError
	if errors.As(err, &buildErr) {
		t.Errorf("open failure typed as %s, want plain I/O error", buildErr.Type)
	}
}

func TestReadMachineTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short")
	if err := os.WriteFile(path, []byte("\x7FEL"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := ReadMachine(path)
	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrInvalidFormat {
		t.Errorf("got %v, want InvalidFormat error", err)
	}
}
