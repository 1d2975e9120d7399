// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var EFI_DEVICE_PATH_PROTOCOL_GUID = MustParseGUID("09576e91-6d3f-11d2-8e39-00a0c969723b")

const (
	maxDepth = 64

	devicePathNodeSize = 4
)

// Device path node types
const (
	EndDevicePathType            = 0x7f
	EndEntireDevicePathSubType   = 0xff
	EndInstanceDevicePathSubType = 0x01
)

// DevicePathNode represents an EFI Generic Device Path Node structure.
type DevicePathNode struct {
	Type    uint8
	SubType uint8
	Length  uint16
}

// Bytes converts the descriptor structure to byte array format.
func (d *DevicePathNode) Bytes() []byte {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, d.Type)
	binary.Write(buf, binary.LittleEndian, d.SubType)
	binary.Write(buf, binary.LittleEndian, d.Length)

	return buf.Bytes()
}

// End reports whether the node terminates the entire device path.
func (d *DevicePathNode) End() bool {
	return d.Type == EndDevicePathType && d.SubType == EndEntireDevicePathSubType
}

// DevicePathSize returns the size of the device path at the beginning of the
// argument buffer, including its end node.
func DevicePathSize(buf []byte) (size int, err error) {
	node := &DevicePathNode{}

	for i := 0; i < maxDepth; i++ {
		if size+devicePathNodeSize > len(buf) {
			return 0, errors.New("device path overflows buffer")
		}

		if err = unmarshalBinary(buf[size:size+devicePathNodeSize], node); err != nil {
			return 0, err
		}

		if node.Length < devicePathNodeSize || size+int(node.Length) > len(buf) {
			return 0, fmt.Errorf("invalid node length (%d)", node.Length)
		}

		size += int(node.Length)

		if node.End() {
			return size, nil
		}
	}

	return 0, errors.New("device path nodes limit exceeded")
}
