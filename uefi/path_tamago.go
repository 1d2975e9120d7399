// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"

	"github.com/usbarmory/tamago/dma"
)

// maximum device path instance size
const bufferSize = 1 << 16

// DevicePath returns the raw EFI Device Path Protocol instance installed on
// the argument handle, including its end node.
//
// While we could use UEFI functions to perform the same, we prefer to keep
// control on this parsing given that UEFI firmware does not handle
// gracefully invalid pointers (e.g. DoS condition).
func (s *BootServices) DevicePath(handle uint64) (devicePath []byte, err error) {
	addr, err := s.HandleProtocol(handle, EFI_DEVICE_PATH_PROTOCOL_GUID)

	if err != nil {
		return
	}

	if addr == 0 {
		return nil, errors.New("invalid device path address")
	}

	r, err := dma.NewRegion(uint(addr), bufferSize, true)

	if err != nil {
		return
	}

	ptr, buf := r.Reserve(bufferSize, 0)
	defer r.Release(ptr)

	size, err := DevicePathSize(buf)

	if err != nil {
		return
	}

	devicePath = make([]byte, size)
	copy(devicePath, buf)

	return
}
