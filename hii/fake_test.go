// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/usbarmory/go-hii/uefi"
)

// fakeDatabase implements an in-memory HII database following the EFI
// variable-length buffer convention.
type fakeDatabase struct {
	lists   map[uint64][]byte
	drivers map[uint64]uint64
	order   []uint64
	next    uint64

	// grow is added to the required size after each probe, to simulate
	// registrations between probe and fetch
	grow  int
	extra int

	// err is returned by every call when set
	err error

	// succeed makes size probes report success with probeSize bytes
	succeed   bool
	probeSize int

	newCalls    int
	removeCalls int
	listCalls   int
	exportCalls int
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		lists:   make(map[uint64][]byte),
		drivers: make(map[uint64]uint64),
		next:    0x1000,
	}
}

func tooSmall() error {
	return uefi.NewStatus(uefi.EFI_BUFFER_TOO_SMALL)
}

func (db *fakeDatabase) NewPackageList(list []byte, driverHandle uint64) (uint64, error) {
	db.newCalls++

	if db.err != nil {
		return 0, db.err
	}

	if len(list) < PackageListHeaderSize || int(binary.LittleEndian.Uint32(list[16:])) != len(list) {
		return 0, uefi.NewStatus(uefi.EFI_INVALID_PARAMETER)
	}

	h := db.next
	db.next += 0x10

	db.lists[h] = bytes.Clone(list)
	db.drivers[h] = driverHandle
	db.order = append(db.order, h)

	return h, nil
}

func (db *fakeDatabase) RemovePackageList(handle uint64) error {
	db.removeCalls++

	if db.err != nil {
		return db.err
	}

	if _, ok := db.lists[handle]; !ok {
		return uefi.NewStatus(uefi.EFI_NOT_FOUND)
	}

	delete(db.lists, handle)
	delete(db.drivers, handle)

	for i, h := range db.order {
		if h == handle {
			db.order = append(db.order[:i], db.order[i+1:]...)
			break
		}
	}

	return nil
}

func (db *fakeDatabase) matches(list []byte, packageType uint8, guid *uefi.GUID) bool {
	if packageType == EFI_HII_PACKAGE_TYPE_ALL {
		return true
	}

	pl, err := ParsePackageList(list)

	if err != nil {
		return false
	}

	for _, p := range pl.Packages {
		if p.Type != packageType {
			continue
		}

		if packageType != EFI_HII_PACKAGE_TYPE_GUID {
			return true
		}

		if guid != nil && len(p.Data) >= 16 && bytes.Equal(p.Data[:16], guid[:]) {
			return true
		}
	}

	return false
}

func (db *fakeDatabase) fill(res []byte, buf []byte) (int, error) {
	need := len(res) + db.extra

	if need == 0 {
		return 0, nil
	}

	if len(buf) < need {
		if buf == nil {
			db.extra += db.grow
		}

		return need, tooSmall()
	}

	return copy(buf, res), nil
}

func (db *fakeDatabase) ListPackageLists(packageType uint8, guid *uefi.GUID, buf []byte) (int, error) {
	db.listCalls++

	if db.err != nil {
		return 0, db.err
	}

	if db.succeed && buf == nil {
		return db.probeSize, nil
	}

	var res []byte

	for _, h := range db.order {
		if db.matches(db.lists[h], packageType, guid) {
			res = binary.LittleEndian.AppendUint64(res, h)
		}
	}

	return db.fill(res, buf)
}

func (db *fakeDatabase) ExportPackageLists(handle uint64, buf []byte) (int, error) {
	db.exportCalls++

	if db.err != nil {
		return 0, db.err
	}

	if db.succeed && buf == nil {
		return db.probeSize, nil
	}

	var res []byte

	if handle == 0 {
		for _, h := range db.order {
			res = append(res, db.lists[h]...)
		}
	} else {
		list, ok := db.lists[handle]

		if !ok {
			return 0, uefi.NewStatus(uefi.EFI_NOT_FOUND)
		}

		res = list
	}

	return db.fill(res, buf)
}

func (db *fakeDatabase) GetPackageListHandle(handle uint64) (uint64, error) {
	if db.err != nil {
		return 0, db.err
	}

	driver, ok := db.drivers[handle]

	if !ok {
		return 0, uefi.NewStatus(uefi.EFI_INVALID_PARAMETER)
	}

	return driver, nil
}

// fakeAllocator counts allocations and releases.
type fakeAllocator struct {
	allocs int
	frees  int
	fail   bool
}

func (a *fakeAllocator) Alloc(size int) ([]byte, error) {
	if a.fail {
		return nil, errors.New("no memory")
	}

	a.allocs++

	return make([]byte, size), nil
}

func (a *fakeAllocator) Free(buf []byte) error {
	a.frees++
	return nil
}

func (a *fakeAllocator) outstanding() int {
	return a.allocs - a.frees
}

// fakeLocator resolves device paths of a fixed set of driver handles.
type fakeLocator struct {
	paths map[uint64][]byte
	order []uint64
}

func (loc *fakeLocator) add(handle uint64, path []byte) {
	if loc.paths == nil {
		loc.paths = make(map[uint64][]byte)
	}

	loc.paths[handle] = path
	loc.order = append(loc.order, handle)
}

func (loc *fakeLocator) LocateHandle(searchType int, protocol uefi.GUID, buf []byte) (int, error) {
	if searchType != uefi.ByProtocol || protocol != uefi.EFI_DEVICE_PATH_PROTOCOL_GUID {
		return 0, uefi.NewStatus(uefi.EFI_INVALID_PARAMETER)
	}

	var res []byte

	for _, h := range loc.order {
		res = binary.LittleEndian.AppendUint64(res, h)
	}

	if len(res) == 0 {
		return 0, uefi.NewStatus(uefi.EFI_NOT_FOUND)
	}

	if len(buf) < len(res) {
		return len(res), tooSmall()
	}

	return copy(buf, res), nil
}

func (loc *fakeLocator) DevicePath(handle uint64) ([]byte, error) {
	path, ok := loc.paths[handle]

	if !ok {
		return nil, uefi.NewStatus(uefi.EFI_UNSUPPORTED)
	}

	return path, nil
}

// blob returns a compiler generated package of the argument type and data.
func blob(packageType uint8, data ...byte) []byte {
	p := &Package{
		PackageHeader: PackageHeader{Type: packageType},
		Data:          data,
	}

	b, err := p.Blob()

	if err != nil {
		panic(err)
	}

	return b
}
