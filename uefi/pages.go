// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Service offsets
const (
	allocatePages = 0x28
	freePages     = 0x30
)

// EFI_ALLOCATE_TYPE
const (
	AllocateAnyPages = iota
	AllocateMaxAddress
	AllocateAddress
	MaxAllocateType
)

// EFI_MEMORY_TYPE
const (
	EfiReservedMemoryType = iota
	EfiLoaderCode
	EfiLoaderData
	EfiBootServicesCode
	EfiBootServicesData
	EfiRuntimeServicesCode
	EfiRuntimeServicesData
	EfiConventionalMemory
	EfiUnusableMemory
	EfiACPIReclaimMemory
	EfiACPIMemoryNVS
	EfiMemoryMappedIO
	EfiMemoryMappedIOPortSpace
	EfiPalCode
	EfiPersistentMemory
	EfiUnacceptedMemoryType
	EfiMaxMemoryType
)

// pages returns the number of pages required to hold size bytes.
func pages(size int) uint64 {
	return (uint64(size) + PageSize - 1) / PageSize
}

// AllocatePages calls EFI_BOOT_SERVICES.AllocatePages(), the size is rounded
// up to a whole number of pages.
//
// The physical address argument is only honored for AllocateMaxAddress and
// AllocateAddress allocation types, the allocated address is returned.
func (s *BootServices) AllocatePages(allocateType int, memoryType int, size int, physicalAddress uint64) (addr uint64, err error) {
	addr = physicalAddress

	status := callService(s.base+allocatePages,
		[]uint64{
			uint64(allocateType),
			uint64(memoryType),
			pages(size),
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// FreePages calls EFI_BOOT_SERVICES.FreePages().
func (s *BootServices) FreePages(addr uint64, size int) error {
	status := callService(s.base+freePages,
		[]uint64{
			addr,
			pages(size),
		},
	)

	return parseStatus(status)
}
