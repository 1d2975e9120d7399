// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"

	"github.com/google/uuid"
)

// registry format length (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)
const guidStringSize = 36

// GUID represents an EFI GUID (Globally Unique Identifier) as a 16-byte array
// with the native EFI byte order.
//
// Note: The registry string format (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)
// reorders the first three fields as little-endian. Internally, we keep the
// native EFI layout (as used in memory), i.e. 16 bytes where the first three
// fields are little-endian values.
type GUID [16]byte

// fromUUID converts an RFC 4122 (big-endian) UUID to the EFI mixed-endian
// layout.
func fromUUID(u uuid.UUID) (g GUID) {
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return
}

// UUID converts the GUID to its RFC 4122 (big-endian) representation.
func (g GUID) UUID() (u uuid.UUID) {
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return
}

// ParseGUID parses a GUID in registry string format into a native EFI GUID.
func ParseGUID(s string) (g GUID, err error) {
	if len(s) != guidStringSize {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	u, err := uuid.Parse(s)

	if err != nil {
		return GUID{}, fmt.Errorf("invalid GUID format: %q, %v", s, err)
	}

	return fromUUID(u), nil
}

// MustParseGUID is like ParseGUID but panics on error. It is intended for package
// level GUID declarations.
func MustParseGUID(s string) (g GUID) {
	var err error

	if g, err = ParseGUID(s); err != nil {
		panic(err)
	}

	return
}

// NewGUID returns a random (version 4) GUID.
func NewGUID() GUID {
	return fromUUID(uuid.New())
}

// String returns the registry format string representation of the GUID.
// https://uefi.org/specs/UEFI/2.10/Apx_A_GUID_and_Time_Formats.html
func (g GUID) String() string {
	return g.UUID().String()
}

func (g *GUID) ptrval() uint64 {
	return ptrval(&g[0])
}
