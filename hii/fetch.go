// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"encoding/binary"
	"fmt"

	"github.com/usbarmory/go-hii/uefi"
)

// DefaultMaxBufferSize represents the default limit for a single buffer
// allocation.
const DefaultMaxBufferSize = 1 << 24 // 16 MiB

// Allocator represents a buffer allocator, such as the EFI Boot Services
// pool (see [uefi.Pool]).
type Allocator interface {
	// Alloc returns a zeroed buffer of the argument size.
	Alloc(size int) ([]byte, error)
	// Free releases a buffer returned by Alloc.
	Free(buf []byte) error
}

type heap struct{}

func (heap) Alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heap) Free([]byte) error {
	return nil
}

func (l *Library) allocator() Allocator {
	if l.Allocator == nil {
		return heap{}
	}

	return l.Allocator
}

func (l *Library) alloc(size int) (buf []byte, err error) {
	limit := l.MaxBufferSize

	if limit <= 0 {
		limit = DefaultMaxBufferSize
	}

	if size < 0 || size > limit {
		return nil, fmt.Errorf("%w, %d bytes exceed %d byte limit", ErrOutOfResources, size, limit)
	}

	if buf, err = l.allocator().Alloc(size); err != nil {
		return nil, fmt.Errorf("%w, %v", ErrOutOfResources, err)
	}

	if len(buf) < size {
		l.free(buf)
		return nil, fmt.Errorf("%w, short allocation (%d < %d)", ErrOutOfResources, len(buf), size)
	}

	return buf[:size], nil
}

func (l *Library) free(buf []byte) {
	if buf == nil {
		return
	}

	if err := l.allocator().Free(buf); err != nil {
		l.logf("hii: could not free %d bytes, %v", len(buf), err)
	}
}

// fetch performs a variable-length query, the query function is called a
// first time with a nil buffer to probe for the required size and, when
// needed, a second time with a buffer of exactly that size.
//
// The returned buffer is owned by the caller, an empty result is returned as
// a nil buffer.
func (l *Library) fetch(query func(buf []byte) (int, error)) (res []byte, err error) {
	size, err := query(nil)

	if err == nil {
		if size != 0 {
			return nil, fmt.Errorf("%w, size probe succeeded reporting %d bytes", ErrMalformed, size)
		}

		return nil, nil
	}

	if !uefi.IsStatus(err, uefi.EFI_BUFFER_TOO_SMALL) {
		return nil, err
	}

	buf, err := l.alloc(size)

	if err != nil {
		return
	}

	defer l.free(buf)

	n, err := query(buf)

	if err != nil {
		if uefi.IsStatus(err, uefi.EFI_BUFFER_TOO_SMALL) {
			l.logf("hii: query result grew from %d to %d bytes", size, n)
		}

		return nil, err
	}

	if n > len(buf) {
		return nil, fmt.Errorf("%w, reported size %d exceeds buffer", ErrMalformed, n)
	}

	res = make([]byte, n)
	copy(res, buf)

	return
}

func decodeHandles(buf []byte) (handles []Handle, err error) {
	if len(buf)%uefi.HandleSize != 0 {
		return nil, fmt.Errorf("%w, handle buffer size %d", ErrMalformed, len(buf))
	}

	for off := 0; off < len(buf); off += uefi.HandleSize {
		handles = append(handles, Handle(binary.LittleEndian.Uint64(buf[off:])))
	}

	return
}
