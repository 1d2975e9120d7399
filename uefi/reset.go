// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Runtime Services offset for ResetSystem
const resetSystem = 0x68

// EFI_RESET_TYPE
const (
	EfiResetCold = iota
	EfiResetWarm
	EfiResetShutdown
	EfiResetPlatformSpecific
)

// resetData returns the ResetData argument for a reset reason, a
// null-terminated UEFI string which firmware may record.
func resetData(reason string) (buf []byte) {
	if len(reason) == 0 {
		return
	}

	return toUTF16(reason)
}

// ResetSystem calls EFI_RUNTIME_SERVICES.ResetSystem(), the optional reason
// is passed as reset data. On success the call does not return.
func (s *RuntimeServices) ResetSystem(resetType int, reason string) (err error) {
	data := resetData(reason)

	status := callService(s.base+resetSystem,
		[]uint64{
			uint64(resetType),
			EFI_SUCCESS,
			uint64(len(data)),
			bufval(data),
		},
	)

	return parseStatus(status)
}
