// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !amd64

package uefi

// EFI services are only reachable from x86_64 UEFI applications.
func callService(fn uint64, args []uint64) (status uint64) {
	return errorBit | EFI_UNSUPPORTED
}
