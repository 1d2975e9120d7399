// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/usbarmory/go-hii/uefi"
)

const (
	// PackageListHeaderSize represents the EFI_HII_PACKAGE_LIST_HEADER
	// size.
	PackageListHeaderSize = 20

	// PackageHeaderSize represents the EFI_HII_PACKAGE_HEADER size.
	PackageHeaderSize = 4

	// size of the length prefix of compiler generated packages
	lengthPrefixSize = 4

	maxPackageLength = 1<<24 - 1
)

// EFI_HII_PACKAGE_TYPE
const (
	EFI_HII_PACKAGE_TYPE_ALL          = 0x00
	EFI_HII_PACKAGE_TYPE_GUID         = 0x01
	EFI_HII_PACKAGE_FORMS             = 0x02
	EFI_HII_PACKAGE_STRINGS           = 0x04
	EFI_HII_PACKAGE_FONTS             = 0x05
	EFI_HII_PACKAGE_IMAGES            = 0x06
	EFI_HII_PACKAGE_SIMPLE_FONTS      = 0x07
	EFI_HII_PACKAGE_DEVICE_PATH       = 0x08
	EFI_HII_PACKAGE_KEYBOARD_LAYOUT   = 0x09
	EFI_HII_PACKAGE_ANIMATIONS        = 0x0a
	EFI_HII_PACKAGE_END               = 0xdf
	EFI_HII_PACKAGE_TYPE_SYSTEM_BEGIN = 0xe0
	EFI_HII_PACKAGE_TYPE_SYSTEM_END   = 0xff
)

var packageTypeNames = map[uint8]string{
	EFI_HII_PACKAGE_TYPE_ALL:        "all",
	EFI_HII_PACKAGE_TYPE_GUID:       "guid",
	EFI_HII_PACKAGE_FORMS:           "forms",
	EFI_HII_PACKAGE_STRINGS:         "strings",
	EFI_HII_PACKAGE_FONTS:           "fonts",
	EFI_HII_PACKAGE_IMAGES:          "images",
	EFI_HII_PACKAGE_SIMPLE_FONTS:    "simplefonts",
	EFI_HII_PACKAGE_DEVICE_PATH:     "devicepath",
	EFI_HII_PACKAGE_KEYBOARD_LAYOUT: "keyboard",
	EFI_HII_PACKAGE_ANIMATIONS:      "animations",
	EFI_HII_PACKAGE_END:             "end",
}

// PackageTypeName returns the name of an EFI_HII_PACKAGE_TYPE value.
func PackageTypeName(t uint8) string {
	if name, ok := packageTypeNames[t]; ok {
		return name
	}

	if t >= EFI_HII_PACKAGE_TYPE_SYSTEM_BEGIN {
		return fmt.Sprintf("system(%#02x)", t)
	}

	return fmt.Sprintf("reserved(%#02x)", t)
}

// ParsePackageType converts a package type name, as returned by
// [PackageTypeName], or a numeric value to an EFI_HII_PACKAGE_TYPE value.
func ParsePackageType(s string) (t uint8, err error) {
	for k, v := range packageTypeNames {
		if v == s {
			return k, nil
		}
	}

	if _, err = fmt.Sscanf(s, "%v", &t); err != nil {
		return 0, fmt.Errorf("%w, invalid package type %q", ErrInvalidArgument, s)
	}

	return
}

// PackageHeader represents an EFI_HII_PACKAGE_HEADER.
type PackageHeader struct {
	// Length is encoded on 24 bits and includes the header itself.
	Length uint32
	Type   uint8
}

// Bytes converts the descriptor structure to byte array format.
func (h *PackageHeader) Bytes() []byte {
	buf := make([]byte, PackageHeaderSize)
	binary.LittleEndian.PutUint32(buf, h.Length&maxPackageLength|uint32(h.Type)<<24)
	return buf
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
func (h *PackageHeader) UnmarshalBinary(data []byte) (err error) {
	if len(data) < PackageHeaderSize {
		return fmt.Errorf("%w, short package header", ErrMalformed)
	}

	v := binary.LittleEndian.Uint32(data)

	h.Length = v & maxPackageLength
	h.Type = uint8(v >> 24)

	return
}

// PackageListHeader represents an EFI_HII_PACKAGE_LIST_HEADER.
type PackageListHeader struct {
	GUID uefi.GUID
	// Length includes the header itself.
	Length uint32
}

// Bytes converts the descriptor structure to byte array format.
func (h *PackageListHeader) Bytes() []byte {
	buf := make([]byte, PackageListHeaderSize)
	copy(buf, h.GUID[:])
	binary.LittleEndian.PutUint32(buf[16:], h.Length)
	return buf
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
func (h *PackageListHeader) UnmarshalBinary(data []byte) (err error) {
	if len(data) < PackageListHeaderSize {
		return fmt.Errorf("%w, short package list header", ErrMalformed)
	}

	copy(h.GUID[:], data[0:16])
	h.Length = binary.LittleEndian.Uint32(data[16:20])

	return
}

// Package represents an HII package.
type Package struct {
	PackageHeader

	// Data holds the package contents following its header.
	Data []byte
}

// MaxPackageDataSize represents the largest package data size, package
// lengths are encoded on 24 bits and include the header.
const MaxPackageDataSize = maxPackageLength - PackageHeaderSize

// Blob returns the package in the length prefixed format generated by
// package compilers, suitable for [PreparePackageList].
func (p *Package) Blob() ([]byte, error) {
	if len(p.Data) > MaxPackageDataSize {
		return nil, fmt.Errorf("%w, package data too large (%d bytes)", ErrInvalidArgument, len(p.Data))
	}

	n := PackageHeaderSize + len(p.Data)

	buf := make([]byte, lengthPrefixSize, lengthPrefixSize+n)
	binary.LittleEndian.PutUint32(buf, uint32(lengthPrefixSize+n))

	hdr := PackageHeader{
		Length: uint32(n),
		Type:   p.Type,
	}

	buf = append(buf, hdr.Bytes()...)
	buf = append(buf, p.Data...)

	return buf, nil
}

// PackageList represents an HII package list.
type PackageList struct {
	PackageListHeader

	// Packages holds all packages preceding the end package.
	Packages []*Package
}

// packageLength returns the length declared by a compiler generated
// package, which must be at least the prefix size and must not exceed the
// blob itself.
func packageLength(blob []byte) (n int, err error) {
	if len(blob) < lengthPrefixSize {
		return 0, fmt.Errorf("%w, short package (%d bytes)", ErrInvalidArgument, len(blob))
	}

	// read as bytes, compiler output carries no alignment guarantee
	n = int(binary.LittleEndian.Uint32(blob[0:lengthPrefixSize]))

	if n < lengthPrefixSize || n > len(blob) {
		return 0, fmt.Errorf("%w, invalid package length (%d for %d bytes)", ErrInvalidArgument, n, len(blob))
	}

	return
}

// PreparePackageList assembles a package list from the argument GUID and
// package blobs.
//
// Each blob starts with a little-endian uint32 holding its total length,
// prefix included, followed by the package itself (EFI_HII_PACKAGE_HEADER
// and data), as generated by VFR and string compilers. The prefixes are
// stripped and the packages are concatenated in argument order after the
// EFI_HII_PACKAGE_LIST_HEADER, followed by the end package.
func PreparePackageList(guid uefi.GUID, packages [][]byte) ([]byte, error) {
	l := &Library{}
	return l.preparePackageList(guid, packages)
}

// preparePackageList returns a buffer obtained from the library allocator,
// the caller must release it with l.free.
func (l *Library) preparePackageList(guid uefi.GUID, packages [][]byte) (buf []byte, err error) {
	size := PackageListHeaderSize + PackageHeaderSize

	for i, p := range packages {
		n, err := packageLength(p)

		if err != nil {
			return nil, fmt.Errorf("package %d, %w", i, err)
		}

		size += n - lengthPrefixSize
	}

	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w, package list too large (%d bytes)", ErrInvalidArgument, size)
	}

	if buf, err = l.alloc(size); err != nil {
		return
	}

	hdr := &PackageListHeader{
		GUID:   guid,
		Length: uint32(size),
	}

	off := copy(buf, hdr.Bytes())

	// same order as the size accounting above
	for _, p := range packages {
		n := binary.LittleEndian.Uint32(p[0:lengthPrefixSize])
		off += copy(buf[off:], p[lengthPrefixSize:n])
	}

	end := &PackageHeader{
		Length: PackageHeaderSize,
		Type:   EFI_HII_PACKAGE_END,
	}

	copy(buf[off:], end.Bytes())

	return
}

// ParsePackageList parses the package list at the beginning of the argument
// buffer, as exported by the HII database.
func ParsePackageList(buf []byte) (pl *PackageList, err error) {
	pl = &PackageList{}

	if err = pl.PackageListHeader.UnmarshalBinary(buf); err != nil {
		return nil, err
	}

	size := int(pl.Length)

	if size < PackageListHeaderSize+PackageHeaderSize || size > len(buf) {
		return nil, fmt.Errorf("%w, invalid package list length (%d for %d bytes)", ErrMalformed, size, len(buf))
	}

	for off := PackageListHeaderSize; off < size; {
		p := &Package{}

		if err = p.PackageHeader.UnmarshalBinary(buf[off:size]); err != nil {
			return nil, err
		}

		n := int(p.Length)

		if n < PackageHeaderSize || off+n > size {
			return nil, fmt.Errorf("%w, invalid package length (%d at offset %d)", ErrMalformed, n, off)
		}

		if p.Type == EFI_HII_PACKAGE_END {
			return pl, nil
		}

		p.Data = make([]byte, n-PackageHeaderSize)
		copy(p.Data, buf[off+PackageHeaderSize:off+n])

		pl.Packages = append(pl.Packages, p)
		off += n
	}

	return nil, fmt.Errorf("%w, missing end package", ErrMalformed)
}

// ParsePackageLists parses all consecutive package lists in the argument
// buffer, as exported by the HII database for a null handle.
func ParsePackageLists(buf []byte) (lists []*PackageList, err error) {
	for off := 0; off < len(buf); {
		pl, err := ParsePackageList(buf[off:])

		if err != nil {
			return nil, fmt.Errorf("package list at offset %d, %w", off, err)
		}

		lists = append(lists, pl)
		off += int(pl.Length)
	}

	return
}
