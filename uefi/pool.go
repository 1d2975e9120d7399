// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offsets
const (
	allocatePool = 0x40
	freePool     = 0x48
)

// AllocatePool calls EFI_BOOT_SERVICES.AllocatePool().
func (s *BootServices) AllocatePool(memoryType int, size int) (addr uint64, err error) {
	status := callService(s.base+allocatePool,
		[]uint64{
			uint64(memoryType),
			uint64(size),
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// FreePool calls EFI_BOOT_SERVICES.FreePool().
func (s *BootServices) FreePool(addr uint64) (err error) {
	status := callService(s.base+freePool,
		[]uint64{
			addr,
		},
	)

	return parseStatus(status)
}
