// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"
	"fmt"

	"github.com/usbarmory/tamago/dma"
)

// DefaultPagesThreshold represents the default size from which [Pool]
// buffers are allocated as whole pages rather than from pool memory.
const DefaultPagesThreshold = 16 * PageSize

type allocation struct {
	region *dma.Region
	// size of page backed allocations, zero for pool ones
	pages int
}

// Pool implements a zeroed buffer allocator over EFI memory, buffers are
// mapped through a DMA region and must be released with [Pool.Free].
//
// Buffers smaller than PagesThreshold are taken from EFI pool memory, larger
// ones from EFI pages.
type Pool struct {
	// MemoryType represents the EFI_MEMORY_TYPE of allocated buffers.
	MemoryType int

	// PagesThreshold represents the size from which buffers are allocated
	// with AllocatePages(), [DefaultPagesThreshold] is used when zero.
	PagesThreshold int

	boot        *BootServices
	allocations map[uint64]*allocation
}

// Pool returns an EFI allocator of EfiBootServicesData memory.
func (s *BootServices) Pool() *Pool {
	return &Pool{
		MemoryType:  EfiBootServicesData,
		boot:        s,
		allocations: make(map[uint64]*allocation),
	}
}

func (p *Pool) threshold() int {
	if p.PagesThreshold <= 0 {
		return DefaultPagesThreshold
	}

	return p.PagesThreshold
}

func (p *Pool) release(addr uint64, a *allocation) error {
	if a.pages > 0 {
		return p.boot.FreePages(addr, a.pages)
	}

	return p.boot.FreePool(addr)
}

// Alloc allocates a zeroed buffer of the argument size.
func (p *Pool) Alloc(size int) (buf []byte, err error) {
	var addr uint64

	if size <= 0 {
		return nil, nil
	}

	if p.boot == nil {
		return nil, errors.New("invalid pool instance")
	}

	a := &allocation{}

	if size >= p.threshold() {
		a.pages = size
		addr, err = p.boot.AllocatePages(AllocateAnyPages, p.MemoryType, size, 0)
	} else {
		addr, err = p.boot.AllocatePool(p.MemoryType, size)
	}

	if err != nil {
		return nil, fmt.Errorf("could not allocate %d bytes, %w", size, err)
	}

	if a.region, err = dma.NewRegion(uint(addr), size, false); err != nil {
		p.release(addr, a)
		return nil, err
	}

	_, buf = a.region.Reserve(size, 0)
	clear(buf)

	p.allocations[addr] = a

	return
}

// Free releases a buffer previously returned by [Pool.Alloc].
func (p *Pool) Free(buf []byte) (err error) {
	addr := bufval(buf)

	a, ok := p.allocations[addr]

	if !ok {
		return fmt.Errorf("invalid pool buffer %#x", addr)
	}

	a.region.Release(uint(addr))
	delete(p.allocations, addr)

	return p.release(addr, a)
}
