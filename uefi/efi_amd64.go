// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// callService invokes the EFI service whose function pointer is stored at
// address fn, following the Microsoft x64 calling convention.
//
// defined in efi_amd64.s
func callService(fn uint64, args []uint64) (status uint64)
