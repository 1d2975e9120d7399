// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/canonical/go-efilib"

	"github.com/usbarmory/go-hii/uefi"
)

func (l *Library) locator() (DeviceLocator, error) {
	if l.Locator == nil {
		return nil, fmt.Errorf("%w, missing device locator", ErrInvalidArgument)
	}

	return l.Locator, nil
}

// DriverHandleOf returns the handle of the driver on which the argument
// device path is installed.
func (l *Library) DriverHandleOf(devicePath []byte) (driverHandle uint64, err error) {
	loc, err := l.locator()

	if err != nil {
		return
	}

	size, err := uefi.DevicePathSize(devicePath)

	if err != nil {
		return 0, fmt.Errorf("%w, %v", ErrInvalidArgument, err)
	}

	devicePath = devicePath[:size]

	buf, err := l.fetch(func(buf []byte) (int, error) {
		return loc.LocateHandle(uefi.ByProtocol, uefi.EFI_DEVICE_PATH_PROTOCOL_GUID, buf)
	})

	if err != nil {
		return
	}

	handles, err := decodeHandles(buf)

	if err != nil {
		return
	}

	for _, handle := range handles {
		path, err := loc.DevicePath(uint64(handle))

		if err != nil {
			continue
		}

		if bytes.Equal(path, devicePath) {
			return uint64(handle), nil
		}
	}

	return 0, fmt.Errorf("%w, no driver for device path %s", ErrNotFound, DevicePathString(devicePath))
}

// DevicePathToHandle returns the handle of the first package list associated
// with the driver on which the argument device path is installed.
func (l *Library) DevicePathToHandle(devicePath []byte) (h Handle, err error) {
	driverHandle, err := l.DriverHandleOf(devicePath)

	if err != nil {
		return
	}

	handles, err := l.Handles()

	if err != nil {
		return
	}

	for _, h = range handles {
		dh, err := l.DriverHandle(h)

		if err != nil {
			continue
		}

		if dh == driverHandle {
			return h, nil
		}
	}

	return 0, fmt.Errorf("%w, no package list for driver %#x", ErrNotFound, driverHandle)
}

// DevicePathString returns the textual representation of the argument
// device path, its hexadecimal encoding is returned when it cannot be
// decoded.
func DevicePathString(devicePath []byte) string {
	path, err := efi.ReadDevicePath(bytes.NewReader(devicePath))

	if err != nil {
		return hex.EncodeToString(devicePath)
	}

	return path.String()
}
