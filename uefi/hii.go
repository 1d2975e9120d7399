// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

var EFI_HII_DATABASE_PROTOCOL_GUID = MustParseGUID("ef9fc172-a1b2-4693-b327-6d32fc416042")

// EFI HII Database Protocol offsets
const (
	newPackageList       = 0x00
	removePackageList    = 0x08
	listPackageLists     = 0x18
	exportPackageLists   = 0x20
	getPackageListHandle = 0x50
)

// HIIDatabase represents an EFI HII Database Protocol instance.
type HIIDatabase struct {
	base uint64
}

// NewPackageList calls EFI_HII_DATABASE_PROTOCOL.NewPackageList(), the
// argument buffer must hold a complete EFI_HII_PACKAGE_LIST_HEADER and is
// copied by the firmware.
func (db *HIIDatabase) NewPackageList(list []byte, driverHandle uint64) (handle uint64, err error) {
	if len(list) == 0 {
		return 0, errors.New("invalid package list")
	}

	status := callService(db.base+newPackageList,
		[]uint64{
			db.base,
			bufval(list),
			driverHandle,
			ptrval(&handle),
		},
	)

	if err = parseStatus(status); err != nil {
		return 0, err
	}

	return
}

// RemovePackageList calls EFI_HII_DATABASE_PROTOCOL.RemovePackageList().
func (db *HIIDatabase) RemovePackageList(handle uint64) (err error) {
	status := callService(db.base+removePackageList,
		[]uint64{
			db.base,
			handle,
		},
	)

	return parseStatus(status)
}

// ListPackageLists calls EFI_HII_DATABASE_PROTOCOL.ListPackageLists(), the
// handles of package lists holding packages of the argument type (and GUID,
// for EFI_HII_PACKAGE_TYPE_GUID) are stored in the argument buffer as an array
// of EFI_HII_HANDLE values.
//
// The returned size is the number of bytes either written or, on
// EFI_BUFFER_TOO_SMALL, required. An empty buffer can be passed to probe for
// the required size.
func (db *HIIDatabase) ListPackageLists(packageType uint8, guid *GUID, buf []byte) (size int, err error) {
	var guidPtr uint64

	n := uint64(len(buf))

	if guid != nil {
		guidPtr = guid.ptrval()
	}

	status := callService(db.base+listPackageLists,
		[]uint64{
			db.base,
			uint64(packageType),
			guidPtr,
			ptrval(&n),
			bufval(buf),
		},
	)

	return int(n), parseStatus(status)
}

// ExportPackageLists calls EFI_HII_DATABASE_PROTOCOL.ExportPackageLists(),
// a null handle exports all package lists.
//
// The returned size is the number of bytes either written or, on
// EFI_BUFFER_TOO_SMALL, required. An empty buffer can be passed to probe for
// the required size.
func (db *HIIDatabase) ExportPackageLists(handle uint64, buf []byte) (size int, err error) {
	n := uint64(len(buf))

	status := callService(db.base+exportPackageLists,
		[]uint64{
			db.base,
			handle,
			ptrval(&n),
			bufval(buf),
		},
	)

	return int(n), parseStatus(status)
}

// GetPackageListHandle calls EFI_HII_DATABASE_PROTOCOL.GetPackageListHandle()
// and returns the driver handle associated with the package list.
func (db *HIIDatabase) GetPackageListHandle(handle uint64) (driverHandle uint64, err error) {
	status := callService(db.base+getPackageListHandle,
		[]uint64{
			db.base,
			handle,
			ptrval(&driverHandle),
		},
	)

	return driverHandle, parseStatus(status)
}

// GetHIIDatabase locates and returns the EFI HII Database Protocol instance.
func (s *BootServices) GetHIIDatabase() (db *HIIDatabase, err error) {
	db = &HIIDatabase{}

	if db.base, err = s.LocateProtocol(EFI_HII_DATABASE_PROTOCOL_GUID); err != nil {
		return nil, err
	}

	return
}

// Address returns the EFI HII Database Protocol instance pointer.
func (db *HIIDatabase) Address() uint64 {
	return db.base
}
