// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"bytes"
	"errors"
	"testing"

	"github.com/usbarmory/go-hii/uefi"
)

func newTestLibrary() (*Library, *fakeDatabase, *fakeAllocator) {
	db := newFakeDatabase()
	a := &fakeAllocator{}

	l := New(db, nil)
	l.Allocator = a

	return l, db, a
}

func TestAddPackages(t *testing.T) {
	l, db, a := newTestLibrary()

	blobs := [][]byte{
		blob(EFI_HII_PACKAGE_FORMS, 1, 2, 3, 4),
		blob(EFI_HII_PACKAGE_STRINGS, 5, 6, 7, 8, 9, 10, 11, 12),
	}

	h, err := l.AddPackages(testGUID, 0xcafe, blobs)

	if err != nil {
		t.Fatal(err)
	}

	if h == 0 {
		t.Fatal("null handle")
	}

	exp, err := PreparePackageList(testGUID, blobs)

	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(db.lists[uint64(h)], exp) {
		t.Errorf("unexpected registered package list %x", db.lists[uint64(h)])
	}

	if !l.IsRegistered(h) {
		t.Error("handle not registered")
	}

	if driver, err := l.DriverHandle(h); err != nil || driver != 0xcafe {
		t.Errorf("unexpected driver handle %#x, %v", driver, err)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}
}

func TestAddPackagesInvalid(t *testing.T) {
	l, db, a := newTestLibrary()

	_, err := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_FORMS), {0x01}})

	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unexpected error %v", err)
	}

	if db.newCalls != 0 {
		t.Errorf("database called %d times", db.newCalls)
	}

	if a.allocs != 0 {
		t.Errorf("%d buffers allocated", a.allocs)
	}
}

func TestAddPackagesFirmwareError(t *testing.T) {
	l, db, a := newTestLibrary()
	db.err = uefi.NewStatus(uefi.EFI_OUT_OF_RESOURCES)

	_, err := l.AddPackages(testGUID, 0, nil)

	if !uefi.IsStatus(err, uefi.EFI_OUT_OF_RESOURCES) {
		t.Fatalf("unexpected error %v", err)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}
}

func TestAddPackagesOutOfResources(t *testing.T) {
	l, db, a := newTestLibrary()
	a.fail = true

	if _, err := l.AddPackages(testGUID, 0, nil); !errors.Is(err, ErrOutOfResources) {
		t.Fatalf("unexpected error %v", err)
	}

	if db.newCalls != 0 {
		t.Errorf("database called %d times", db.newCalls)
	}
}

func TestRemovePackages(t *testing.T) {
	l, db, _ := newTestLibrary()

	h, err := l.AddPackages(testGUID, 0, nil)

	if err != nil {
		t.Fatal(err)
	}

	if err = l.RemovePackages(h); err != nil {
		t.Fatal(err)
	}

	if l.IsRegistered(h) {
		t.Error("handle still registered")
	}

	if err = l.RemovePackages(h); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unexpected error %v", err)
	}

	if err = l.RemovePackages(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unexpected error %v", err)
	}

	if db.removeCalls != 1 {
		t.Errorf("unexpected remove calls %d", db.removeCalls)
	}
}

func TestIsRegistered(t *testing.T) {
	l, db, _ := newTestLibrary()

	if l.IsRegistered(0) {
		t.Error("null handle registered")
	}

	if l.IsRegistered(0x1234) {
		t.Error("unknown handle registered")
	}

	h, _ := l.AddPackages(testGUID, 0, nil)

	if !l.IsRegistered(h) {
		t.Error("handle not registered")
	}

	// any other status means unregistered
	db.err = uefi.NewStatus(uefi.EFI_DEVICE_ERROR)

	if l.IsRegistered(h) {
		t.Error("handle registered on firmware error")
	}

	if (&Library{}).IsRegistered(h) {
		t.Error("handle registered without database")
	}

	// a successful probe means there is nothing to export
	db.err = nil
	db.succeed = true

	if l.IsRegistered(h) {
		t.Error("handle registered on empty export")
	}

	if _, err := l.ExportPackageLists(h); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFirmwareErrorPassthrough(t *testing.T) {
	l, db, _ := newTestLibrary()

	h, err := l.AddPackages(testGUID, 0, nil)

	if err != nil {
		t.Fatal(err)
	}

	db.err = uefi.NewStatus(uefi.EFI_DEVICE_ERROR)

	_, err = l.ExportPackageLists(h)

	if !uefi.IsStatus(err, uefi.EFI_DEVICE_ERROR) || errors.Is(err, ErrNotRegistered) {
		t.Errorf("export: unexpected error %v", err)
	}

	_, err = l.ExtractGUID(h)

	if !uefi.IsStatus(err, uefi.EFI_DEVICE_ERROR) || errors.Is(err, ErrNotRegistered) {
		t.Errorf("guid: unexpected error %v", err)
	}

	err = l.RemovePackages(h)

	if !uefi.IsStatus(err, uefi.EFI_DEVICE_ERROR) || errors.Is(err, ErrNotRegistered) {
		t.Errorf("remove: unexpected error %v", err)
	}

	if db.removeCalls != 0 {
		t.Errorf("unexpected remove calls %d", db.removeCalls)
	}
}

func TestFetchProbeSuccess(t *testing.T) {
	l, db, a := newTestLibrary()

	l.AddPackages(testGUID, 0, nil)

	db.succeed = true
	db.listCalls = 0

	handles, err := l.Handles()

	if err != nil || handles != nil {
		t.Fatalf("unexpected result %v, %v", handles, err)
	}

	db.probeSize = 8

	if _, err = l.Handles(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("unexpected error %v", err)
	}

	if db.listCalls != 2 || a.outstanding() != 0 {
		t.Errorf("unexpected calls %d, outstanding buffers %d", db.listCalls, a.outstanding())
	}
}

func TestHandles(t *testing.T) {
	l, db, a := newTestLibrary()

	handles, err := l.Handles()

	if err != nil {
		t.Fatal(err)
	}

	if len(handles) != 0 {
		t.Errorf("unexpected handles %v", handles)
	}

	// an empty result needs no fetch
	if db.listCalls != 1 || a.allocs != 0 {
		t.Errorf("unexpected calls %d, allocations %d", db.listCalls, a.allocs)
	}

	var exp []Handle

	for i := 0; i < 3; i++ {
		h, err := l.AddPackages(testGUID, 0, nil)

		if err != nil {
			t.Fatal(err)
		}

		exp = append(exp, h)
	}

	db.listCalls = 0

	if handles, err = l.Handles(); err != nil {
		t.Fatal(err)
	}

	if len(handles) != len(exp) {
		t.Fatalf("unexpected handles %v", handles)
	}

	for i := range exp {
		if handles[i] != exp[i] {
			t.Errorf("unexpected handle %s != %s", handles[i], exp[i])
		}
	}

	if db.listCalls != 2 {
		t.Errorf("unexpected calls %d", db.listCalls)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}
}

func TestListPackageLists(t *testing.T) {
	l, _, _ := newTestLibrary()

	forms, _ := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_FORMS, 1)})
	strings, _ := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_STRINGS, 2)})
	guided, _ := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_TYPE_GUID, testGUID[:]...)})

	handles, err := l.ListPackageLists(EFI_HII_PACKAGE_STRINGS, nil)

	if err != nil {
		t.Fatal(err)
	}

	if len(handles) != 1 || handles[0] != strings {
		t.Errorf("unexpected handles %v", handles)
	}

	// the GUID is ignored for non GUID types
	if handles, err = l.ListPackageLists(EFI_HII_PACKAGE_FORMS, &uefi.EFI_HII_DATABASE_PROTOCOL_GUID); err != nil {
		t.Fatal(err)
	}

	if len(handles) != 1 || handles[0] != forms {
		t.Errorf("unexpected handles %v", handles)
	}

	if handles, err = l.ListPackageLists(EFI_HII_PACKAGE_TYPE_GUID, &testGUID); err != nil {
		t.Fatal(err)
	}

	if len(handles) != 1 || handles[0] != guided {
		t.Errorf("unexpected handles %v", handles)
	}

	if handles, err = l.ListPackageLists(EFI_HII_PACKAGE_FONTS, nil); err != nil || len(handles) != 0 {
		t.Errorf("unexpected result %v, %v", handles, err)
	}
}

func TestListPackageListsMissingGUID(t *testing.T) {
	l, db, _ := newTestLibrary()

	if _, err := l.ListPackageLists(EFI_HII_PACKAGE_TYPE_GUID, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unexpected error %v", err)
	}

	if db.listCalls != 0 {
		t.Errorf("database called %d times", db.listCalls)
	}
}

func TestExportPackageLists(t *testing.T) {
	l, db, a := newTestLibrary()

	blobs := [][]byte{blob(EFI_HII_PACKAGE_FORMS, 1, 2, 3)}

	h, err := l.AddPackages(testGUID, 0, blobs)

	if err != nil {
		t.Fatal(err)
	}

	db.exportCalls = 0

	buf, err := l.ExportPackageLists(h)

	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf, db.lists[uint64(h)]) {
		t.Errorf("unexpected export %x", buf)
	}

	// registration probe, size probe, fetch
	if db.exportCalls != 3 {
		t.Errorf("unexpected calls %d", db.exportCalls)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}

	// the result is not backed by the allocator
	buf[0] ^= 0xff

	if db.lists[uint64(h)][0] == buf[0] {
		t.Error("export aliases database memory")
	}
}

func TestExportAllPackageLists(t *testing.T) {
	l, db, _ := newTestLibrary()

	if buf, err := l.ExportPackageLists(0); err != nil || buf != nil {
		t.Fatalf("unexpected result %x, %v", buf, err)
	}

	a, _ := l.AddPackages(testGUID, 0, nil)
	b, _ := l.AddPackages(uefi.EFI_HII_DATABASE_PROTOCOL_GUID, 0, [][]byte{blob(EFI_HII_PACKAGE_FONTS, 9)})

	buf, err := l.ExportPackageLists(0)

	if err != nil {
		t.Fatal(err)
	}

	lists, err := ParsePackageLists(buf)

	if err != nil {
		t.Fatal(err)
	}

	if len(lists) != 2 {
		t.Fatalf("unexpected count %d", len(lists))
	}

	if !bytes.Equal(buf, append(bytes.Clone(db.lists[uint64(a)]), db.lists[uint64(b)]...)) {
		t.Errorf("unexpected export %x", buf)
	}
}

func TestExportNotRegistered(t *testing.T) {
	l, _, _ := newTestLibrary()

	if _, err := l.ExportPackageLists(0x1234); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFetchRace(t *testing.T) {
	l, db, a := newTestLibrary()

	l.AddPackages(testGUID, 0, nil)

	db.grow = 8
	db.listCalls = 0

	_, err := l.Handles()

	if !uefi.IsStatus(err, uefi.EFI_BUFFER_TOO_SMALL) {
		t.Fatalf("unexpected error %v", err)
	}

	// no further attempt after the fetch
	if db.listCalls != 2 {
		t.Errorf("unexpected calls %d", db.listCalls)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}
}

func TestFetchOutOfResources(t *testing.T) {
	l, db, a := newTestLibrary()

	l.AddPackages(testGUID, 0, nil)

	a.fail = true
	db.listCalls = 0

	if _, err := l.Handles(); !errors.Is(err, ErrOutOfResources) {
		t.Fatalf("unexpected error %v", err)
	}

	if db.listCalls != 1 {
		t.Errorf("unexpected calls %d", db.listCalls)
	}
}

func TestFetchMaxBufferSize(t *testing.T) {
	l, _, a := newTestLibrary()

	h, _ := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_FORMS, make([]byte, 64)...)})

	l.MaxBufferSize = 32

	if _, err := l.ExportPackageLists(h); !errors.Is(err, ErrOutOfResources) {
		t.Fatalf("unexpected error %v", err)
	}

	if n := a.outstanding(); n != 0 {
		t.Errorf("%d buffers not released", n)
	}
}

func TestFetchFirmwareError(t *testing.T) {
	l, db, _ := newTestLibrary()
	db.err = uefi.NewStatus(uefi.EFI_DEVICE_ERROR)

	_, err := l.Handles()

	var status uefi.Status

	if !errors.As(err, &status) || status.Code() != uefi.EFI_DEVICE_ERROR {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExtractGUID(t *testing.T) {
	l, _, _ := newTestLibrary()

	h, err := l.AddPackages(testGUID, 0, [][]byte{blob(EFI_HII_PACKAGE_FORMS, 1)})

	if err != nil {
		t.Fatal(err)
	}

	guid, err := l.ExtractGUID(h)

	if err != nil {
		t.Fatal(err)
	}

	if guid != testGUID {
		t.Errorf("unexpected GUID %s", guid)
	}

	if _, err = l.ExtractGUID(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unexpected error %v", err)
	}

	if _, err = l.ExtractGUID(h + 1); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestPackageList(t *testing.T) {
	l, _, _ := newTestLibrary()

	h, _ := l.AddPackages(testGUID, 0, [][]byte{
		blob(EFI_HII_PACKAGE_FORMS, 1),
		blob(EFI_HII_PACKAGE_STRINGS, 2, 3),
	})

	pl, err := l.PackageList(h)

	if err != nil {
		t.Fatal(err)
	}

	if pl.GUID != testGUID || len(pl.Packages) != 2 {
		t.Fatalf("unexpected package list %+v", pl)
	}

	if pl.Packages[1].Type != EFI_HII_PACKAGE_STRINGS || !bytes.Equal(pl.Packages[1].Data, []byte{2, 3}) {
		t.Errorf("unexpected package %+v", pl.Packages[1])
	}
}

func TestMissingDatabase(t *testing.T) {
	l := &Library{}

	if _, err := l.Handles(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unexpected error %v", err)
	}

	if _, err := l.AddPackages(testGUID, 0, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unexpected error %v", err)
	}
}
