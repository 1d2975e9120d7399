// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

const (
	// EFI Boot Services offset for GetMemoryMap
	getMemoryMap = 0x38
	// room for descriptors created by the memory map allocation itself
	mapSlack = 8
)

// PageSize represents the EFI page size in bytes
const PageSize = 4096 // 4 KiB

// MemoryDescriptor represents an EFI Memory Descriptor
type MemoryDescriptor struct {
	Type          uint32
	_             uint32
	PhysicalStart uint64
	VirtualStart  uint64
	NumberOfPages uint64
	Attribute     uint64
}

// PhysicalEnd returns the descriptor physical end address.
func (d *MemoryDescriptor) PhysicalEnd() uint64 {
	return d.PhysicalStart + d.NumberOfPages*PageSize
}

// Size returns the descriptor size.
func (d *MemoryDescriptor) Size() int {
	return int(d.NumberOfPages * PageSize)
}

// MemoryMap represents an EFI Memory Map
type MemoryMap struct {
	MapSize           uint64
	Descriptors       []*MemoryDescriptor
	MapKey            uint64
	DescriptorSize    uint64
	DescriptorVersion uint32

	buf []byte
}

// Address returns the EFI Memory Map pointer.
func (m *MemoryMap) Address() uint64 {
	return bufval(m.buf)
}

func (s *BootServices) getMemoryMap(m *MemoryMap) uint64 {
	return callService(
		s.base+getMemoryMap,
		[]uint64{
			ptrval(&m.MapSize),
			bufval(m.buf),
			ptrval(&m.MapKey),
			ptrval(&m.DescriptorSize),
			ptrval(&m.DescriptorVersion),
		},
	)
}

// GetMemoryMap calls EFI_BOOT_SERVICES.GetMemoryMap().
func (s *BootServices) GetMemoryMap() (m *MemoryMap, err error) {
	m = &MemoryMap{}

	// the first call reports the required size
	status := s.getMemoryMap(m)

	if status != errorBit|EFI_BUFFER_TOO_SMALL {
		if err = parseStatus(status); err != nil {
			return nil, err
		}

		return
	}

	m.MapSize += mapSlack * m.DescriptorSize
	m.buf = make([]byte, m.MapSize)

	if err = parseStatus(s.getMemoryMap(m)); err != nil {
		return
	}

	if m.DescriptorSize == 0 {
		return
	}

	for i := 0; i+int(m.DescriptorSize) <= int(m.MapSize); i += int(m.DescriptorSize) {
		d := &MemoryDescriptor{}

		if err = unmarshalBinary(m.buf[i:], d); err != nil {
			break
		}

		m.Descriptors = append(m.Descriptors, d)
	}

	return
}
