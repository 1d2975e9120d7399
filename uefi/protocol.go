// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offsets
const (
	handleProtocol = 0x098
	locateHandle   = 0x0b0
	locateProtocol = 0x140
)

// EFI_LOCATE_SEARCH_TYPE
const (
	AllHandles = iota
	ByRegisterNotify
	ByProtocol
)

// HandleSize represents the size of an EFI_HANDLE.
const HandleSize = 8

// HandleProtocol calls EFI_BOOT_SERVICES.HandleProtocol().
func (s *BootServices) HandleProtocol(handle uint64, guid GUID) (addr uint64, err error) {
	status := callService(s.base+handleProtocol,
		[]uint64{
			handle,
			guid.ptrval(),
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// LocateProtocol calls EFI_BOOT_SERVICES.LocateProtocol().
func (s *BootServices) LocateProtocol(guid GUID) (addr uint64, err error) {
	status := callService(s.base+locateProtocol,
		[]uint64{
			guid.ptrval(),
			0,
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// LocateHandle calls EFI_BOOT_SERVICES.LocateHandle(), the handles matching
// the search are stored in the argument buffer as an array of EFI_HANDLE
// values.
//
// The returned size is the number of bytes either written or, on
// EFI_BUFFER_TOO_SMALL, required to hold all matching handles. An empty
// buffer can be passed to probe for the required size.
func (s *BootServices) LocateHandle(searchType int, protocol GUID, buf []byte) (size int, err error) {
	n := uint64(len(buf))

	status := callService(s.base+locateHandle,
		[]uint64{
			uint64(searchType),
			protocol.ptrval(),
			0,
			ptrval(&n),
			bufval(buf),
		},
	)

	return int(n), parseStatus(status)
}
