// Package elf extracts the two facts the packager needs from a native
// executable: its target architecture, read from the fixed ELF header
// layout, and the minimum shared library versions it was linked against,
// scraped from readelf output.
package elf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ralt/debforge/internal/models"
)

// headerLen covers magic through the e_machine field.
const headerLen = 20

// Byte offsets into the fixed ELF identification block and header.
const (
	offClass   = 4
	offData    = 5
	offVersion = 6
	offMachine = 18
)

// machineArch maps e_machine codes to Debian architecture names. The MIPS
// code resolves differently for 32- and 64-bit binaries.
func machineArch(machine uint16, bits int) (string, bool) {
	switch machine {
	case 0x28:
		return "armel", true
	case 0x3E:
		return "amd64", true
	case 0xB7:
		return "arm64", true
	case 0x03:
		return "i386", true
	case 0x08:
		if bits == 32 {
			return "mipsel", true
		}
		return "mips64el", true
	case 0x15:
		return "ppc64el", true
	case 0x16:
		return "s390x", true
	}
	return "", false
}

// ReadMachine parses the ELF header of the executable at path and returns
// the Debian architecture name for its machine code.
func ReadMachine(path string) (string, error) {
	// An unreadable file is an I/O problem, not a format violation.
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open executable: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", &models.BuildError{
			Type: models.ErrInvalidFormat,
			Path: path,
			Err:  fmt.Errorf("failed to read ELF header: %w", err),
		}
	}

	if string(header[0:4]) != "\x7FELF" {
		return "", &models.BuildError{
			Type: models.ErrInvalidFormat,
			Path: path,
			Err:  fmt.Errorf("ELF magic does not match"),
		}
	}

	// Only 64-bit executables are supported.
	bits := 64
	if header[offClass] != 2 {
		return "", &models.BuildError{
			Type: models.ErrUnsupportedBitness,
			Path: path,
			Err:  fmt.Errorf("invalid bitness: %#02x", header[offClass]),
		}
	}

	var byteOrder binary.ByteOrder
	switch header[offData] {
	case 1:
		byteOrder = binary.LittleEndian
	case 2:
		byteOrder = binary.BigEndian
	default:
		return "", &models.BuildError{
			Type: models.ErrInvalidEndianness,
			Path: path,
			Err:  fmt.Errorf("invalid endianness value: %#02x", header[offData]),
		}
	}

	if header[offVersion] != 1 {
		return "", &models.BuildError{
			Type: models.ErrUnsupportedVersion,
			Path: path,
			Err:  fmt.Errorf("unsupported ELF version: %#02x", header[offVersion]),
		}
	}

	// ABI, ABI version, padding and file type sit between the
	// identification block and the machine code.
	machine := byteOrder.Uint16(header[offMachine : offMachine+2])
	arch, ok := machineArch(machine, bits)
	if !ok {
		return "", &models.BuildError{
			Type: models.ErrUnknownMachine,
			Path: path,
			Err:  fmt.Errorf("no architecture mapping for machine code %#04x", machine),
		}
	}

	return arch, nil
}
