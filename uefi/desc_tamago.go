// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"

	"github.com/usbarmory/tamago/dma"
)

const align = 8

func decode(data any, addr uint64) (err error) {
	if addr == 0 {
		return errors.New("invalid address")
	}

	t, _ := marshalBinary(data)
	n := len(t) + (len(t) % align)

	r, err := dma.NewRegion(uint(addr), n, true)

	if err != nil {
		return
	}

	ptr, buf := r.Reserve(len(t), 0)
	defer r.Release(ptr)

	return unmarshalBinary(buf, data)
}

// read copies size bytes of firmware memory at the argument address.
func read(addr uint64, size int) (buf []byte, err error) {
	if addr == 0 {
		return nil, errors.New("invalid address")
	}

	r, err := dma.NewRegion(uint(addr), size, true)

	if err != nil {
		return
	}

	ptr, b := r.Reserve(size, 0)
	defer r.Release(ptr)

	buf = make([]byte, size)
	copy(buf, b)

	return
}
