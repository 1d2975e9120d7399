// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hii

import (
	"errors"
)

var (
	// ErrInvalidArgument is returned when a caller precondition is not met
	// (e.g. malformed package blob, null handle, missing GUID filter).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRegistered is returned when a handle that must be known to
	// the HII database is not.
	ErrNotRegistered = errors.New("handle not registered")

	// ErrOutOfResources is returned when a buffer cannot be allocated.
	ErrOutOfResources = errors.New("out of resources")

	// ErrNotFound is returned when a lookup yields no HII handle.
	ErrNotFound = errors.New("not found")

	// ErrMalformed is returned when a package list buffer cannot be
	// parsed.
	ErrMalformed = errors.New("malformed package list")
)
