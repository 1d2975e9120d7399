// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hii implements helpers for the UEFI Human Interface
// Infrastructure (HII) Database Protocol following the specifications at:
//
//	https://uefi.org/specs/UEFI/2.10/34_HII_Protocols.html
//
// The package assembles package lists from compiler generated package blobs
// and wraps the protocol variable-length queries, which report the required
// buffer size on a first call and fill the buffer on a second one.
//
// The HII database itself is reached through the [Database] interface, which
// [uefi.HIIDatabase] implements on UEFI firmware.
package hii

import (
	"fmt"
	"log"

	"github.com/usbarmory/go-hii/uefi"
)

// Handle represents an EFI_HII_HANDLE, the zero value is the null handle.
type Handle uint64

// String returns the handle value in hexadecimal format.
func (h Handle) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// Database represents the HII Database Protocol functions used by the
// library.
//
// ListPackageLists and ExportPackageLists follow the EFI convention of
// returning an EFI_BUFFER_TOO_SMALL [uefi.Status], along with the required
// size, when the argument buffer cannot hold the result.
type Database interface {
	NewPackageList(list []byte, driverHandle uint64) (handle uint64, err error)
	RemovePackageList(handle uint64) error
	ListPackageLists(packageType uint8, guid *uefi.GUID, buf []byte) (size int, err error)
	ExportPackageLists(handle uint64, buf []byte) (size int, err error)
	GetPackageListHandle(handle uint64) (driverHandle uint64, err error)
}

// DeviceLocator represents the EFI Boot Services functions used to resolve
// device paths to driver handles, LocateHandle follows the same
// EFI_BUFFER_TOO_SMALL convention as [Database].
type DeviceLocator interface {
	LocateHandle(searchType int, protocol uefi.GUID, buf []byte) (size int, err error)
	DevicePath(handle uint64) ([]byte, error)
}

// Library represents an HII helper instance.
type Library struct {
	// Database represents the HII Database Protocol instance.
	Database Database

	// Locator represents the handle enumeration facility, only required
	// by [Library.DevicePathToHandle].
	Locator DeviceLocator

	// Allocator represents the allocator for buffers passed to the
	// database, the Go heap is used when nil.
	Allocator Allocator

	// MaxBufferSize limits each buffer allocation, [DefaultMaxBufferSize]
	// is used when zero.
	MaxBufferSize int

	// Log represents the optional library logger.
	Log *log.Logger
}

// New returns an HII helper instance for the argument database.
func New(db Database, locator DeviceLocator) *Library {
	return &Library{
		Database: db,
		Locator:  locator,
	}
}

func (l *Library) logf(format string, v ...any) {
	if l.Log != nil {
		l.Log.Printf(format, v...)
	}
}

func (l *Library) database() (Database, error) {
	if l.Database == nil {
		return nil, fmt.Errorf("%w, missing HII database", ErrInvalidArgument)
	}

	return l.Database, nil
}

// AddPackages assembles a package list from the argument package blobs
// (see [PreparePackageList]) and registers it in the HII database. The
// optional driver handle associates the package list with the device path
// installed on it.
func (l *Library) AddPackages(guid uefi.GUID, driverHandle uint64, packages [][]byte) (h Handle, err error) {
	db, err := l.database()

	if err != nil {
		return
	}

	list, err := l.preparePackageList(guid, packages)

	if err != nil {
		return
	}

	defer l.free(list)

	handle, err := db.NewPackageList(list, driverHandle)

	if err != nil {
		return 0, fmt.Errorf("could not add package list %s, %w", guid, err)
	}

	h = Handle(handle)
	l.logf("hii: added package list %s (%d packages, %d bytes) as %s", guid, len(packages), len(list), h)

	return
}

// RemovePackages removes a registered package list from the HII database.
func (l *Library) RemovePackages(h Handle) (err error) {
	db, err := l.database()

	if err != nil {
		return
	}

	if err = l.registered(h); err != nil {
		return
	}

	if err = db.RemovePackageList(uint64(h)); err != nil {
		return fmt.Errorf("could not remove package list %s, %w", h, err)
	}

	l.logf("hii: removed package list %s", h)

	return
}

// Handles returns the handles of all package lists in the HII database.
func (l *Library) Handles() ([]Handle, error) {
	return l.ListPackageLists(EFI_HII_PACKAGE_TYPE_ALL, nil)
}

// ListPackageLists returns the handles of package lists holding packages of
// the argument type, the GUID is required for EFI_HII_PACKAGE_TYPE_GUID and
// ignored otherwise.
func (l *Library) ListPackageLists(packageType uint8, guid *uefi.GUID) (handles []Handle, err error) {
	db, err := l.database()

	if err != nil {
		return
	}

	if packageType == EFI_HII_PACKAGE_TYPE_GUID {
		if guid == nil {
			return nil, fmt.Errorf("%w, missing GUID for package type %#x", ErrInvalidArgument, packageType)
		}
	} else {
		guid = nil
	}

	buf, err := l.fetch(func(buf []byte) (int, error) {
		return db.ListPackageLists(packageType, guid, buf)
	})

	if err != nil {
		return
	}

	return decodeHandles(buf)
}

// ExportPackageLists returns the exported contents of the package list
// associated with the argument handle, a null handle exports all package
// lists.
func (l *Library) ExportPackageLists(h Handle) (buf []byte, err error) {
	db, err := l.database()

	if err != nil {
		return
	}

	if h != 0 {
		if err = l.registered(h); err != nil {
			return
		}
	}

	return l.fetch(func(buf []byte) (int, error) {
		return db.ExportPackageLists(uint64(h), buf)
	})
}

// PackageList returns the parsed package list associated with the argument
// handle.
func (l *Library) PackageList(h Handle) (*PackageList, error) {
	if h == 0 {
		return nil, fmt.Errorf("%w, null handle", ErrInvalidArgument)
	}

	buf, err := l.ExportPackageLists(h)

	if err != nil {
		return nil, err
	}

	return ParsePackageList(buf)
}

// ExtractGUID returns the GUID of the package list associated with the
// argument handle.
func (l *Library) ExtractGUID(h Handle) (guid uefi.GUID, err error) {
	if h == 0 {
		return guid, fmt.Errorf("%w, null handle", ErrInvalidArgument)
	}

	buf, err := l.ExportPackageLists(h)

	if err != nil {
		return
	}

	hdr := &PackageListHeader{}

	if err = hdr.UnmarshalBinary(buf); err != nil {
		return
	}

	return hdr.GUID, nil
}

// DriverHandle returns the driver handle associated with the package list
// at registration.
func (l *Library) DriverHandle(h Handle) (driverHandle uint64, err error) {
	db, err := l.database()

	if err != nil {
		return
	}

	if h == 0 {
		return 0, fmt.Errorf("%w, null handle", ErrInvalidArgument)
	}

	return db.GetPackageListHandle(uint64(h))
}

// IsRegistered reports whether the argument handle is known to the HII
// database, which is the case when an export probe against it reports
// EFI_BUFFER_TOO_SMALL.
func (l *Library) IsRegistered(h Handle) bool {
	if h == 0 || l.Database == nil {
		return false
	}

	_, err := l.Database.ExportPackageLists(uint64(h), nil)

	return uefi.IsStatus(err, uefi.EFI_BUFFER_TOO_SMALL)
}

// registered checks that the argument handle is known to the HII database,
// firmware errors other than those denoting an unknown handle are returned
// unchanged.
func (l *Library) registered(h Handle) error {
	if h == 0 {
		return fmt.Errorf("%w, null handle", ErrInvalidArgument)
	}

	db, err := l.database()

	if err != nil {
		return err
	}

	_, err = db.ExportPackageLists(uint64(h), nil)

	switch {
	case uefi.IsStatus(err, uefi.EFI_BUFFER_TOO_SMALL):
		return nil
	case err == nil:
		// nothing to export
		return fmt.Errorf("%w, %s", ErrNotRegistered, h)
	case uefi.IsStatus(err, uefi.EFI_NOT_FOUND), uefi.IsStatus(err, uefi.EFI_INVALID_PARAMETER):
		return fmt.Errorf("%w, %s (%v)", ErrNotRegistered, h, err)
	default:
		return fmt.Errorf("could not check handle %s, %w", h, err)
	}
}
