// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offset for Exit
const exit = 0xd8

// Exit calls EFI_BOOT_SERVICES.Exit(), returning control to the image
// loader.
func (s *BootServices) Exit(code int) (err error) {
	status := callService(s.base+exit,
		[]uint64{
			s.imageHandle,
			uint64(code),
			0,
			0,
		},
	)

	return parseStatus(status)
}
