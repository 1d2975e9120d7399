// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"
)

// EFI Table Header Signature
const signature = 0x5453595320494249 // TSYS IBI

// maximum firmware vendor string size
const maxVendorSize = 64

// Init initializes an UEFI services instance using the argument pointers.
func (s *Services) Init(imageHandle uint64, systemTable uint64) (err error) {
	s.imageHandle = imageHandle
	s.systemTable = systemTable

	s.SystemTable = &SystemTable{}

	if err = decode(s.SystemTable, systemTable); err != nil {
		return
	}

	if s.SystemTable.Header.Signature != signature {
		return errors.New("EFI System Table pointer is invalid")
	}

	s.Console = &Console{
		ForceLine:   true,
		ReplaceTabs: 8,
		In:          s.SystemTable.ConIn,
		Out:         s.SystemTable.ConOut,
	}

	s.Boot = &BootServices{
		base:        s.SystemTable.BootServices,
		imageHandle: imageHandle,
	}

	s.Runtime = &RuntimeServices{
		base: s.SystemTable.RuntimeServices,
	}

	return
}

// FirmwareVendor returns the EFI System Table firmware vendor string.
func (s *Services) FirmwareVendor() string {
	if s.SystemTable == nil {
		return ""
	}

	buf, err := read(s.SystemTable.FirmwareVendor, maxVendorSize)

	if err != nil {
		return ""
	}

	return fromUTF16(buf)
}
