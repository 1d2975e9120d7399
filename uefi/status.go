// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
)

// EFI_STATUS error codes (low byte, the high bit is set on errors)
// https://uefi.org/specs/UEFI/2.10/Apx_D_Status_Codes.html
const (
	EFI_SUCCESS              = 0
	EFI_LOAD_ERROR           = 1
	EFI_INVALID_PARAMETER    = 2
	EFI_UNSUPPORTED          = 3
	EFI_BAD_BUFFER_SIZE      = 4
	EFI_BUFFER_TOO_SMALL     = 5
	EFI_NOT_READY            = 6
	EFI_DEVICE_ERROR         = 7
	EFI_WRITE_PROTECTED      = 8
	EFI_OUT_OF_RESOURCES     = 9
	EFI_VOLUME_CORRUPTED     = 10
	EFI_VOLUME_FULL          = 11
	EFI_NO_MEDIA             = 12
	EFI_MEDIA_CHANGED        = 13
	EFI_NOT_FOUND            = 14
	EFI_ACCESS_DENIED        = 15
	EFI_NO_RESPONSE          = 16
	EFI_NO_MAPPING           = 17
	EFI_TIMEOUT              = 18
	EFI_NOT_STARTED          = 19
	EFI_ALREADY_STARTED      = 20
	EFI_ABORTED              = 21
	EFI_ICMP_ERROR           = 22
	EFI_TFTP_ERROR           = 23
	EFI_PROTOCOL_ERROR       = 24
	EFI_INCOMPATIBLE_VERSION = 25
	EFI_SECURITY_VIOLATION   = 26

	errorBit = 1 << 63
)

// EFI_STATUS warning codes (the high bit is clear on warnings)
const (
	EFI_WARN_UNKNOWN_GLYPH    = 1
	EFI_WARN_DELETE_FAILURE   = 2
	EFI_WARN_WRITE_FAILURE    = 3
	EFI_WARN_BUFFER_TOO_SMALL = 4
	EFI_WARN_STALE_DATA       = 5
	EFI_WARN_FILE_SYSTEM      = 6
	EFI_WARN_RESET_REQUIRED   = 7
)

var statusNames = map[uint64]string{
	EFI_LOAD_ERROR:           "EFI_LOAD_ERROR",
	EFI_INVALID_PARAMETER:    "EFI_INVALID_PARAMETER",
	EFI_UNSUPPORTED:          "EFI_UNSUPPORTED",
	EFI_BAD_BUFFER_SIZE:      "EFI_BAD_BUFFER_SIZE",
	EFI_BUFFER_TOO_SMALL:     "EFI_BUFFER_TOO_SMALL",
	EFI_NOT_READY:            "EFI_NOT_READY",
	EFI_DEVICE_ERROR:         "EFI_DEVICE_ERROR",
	EFI_WRITE_PROTECTED:      "EFI_WRITE_PROTECTED",
	EFI_OUT_OF_RESOURCES:     "EFI_OUT_OF_RESOURCES",
	EFI_VOLUME_CORRUPTED:     "EFI_VOLUME_CORRUPTED",
	EFI_VOLUME_FULL:          "EFI_VOLUME_FULL",
	EFI_NO_MEDIA:             "EFI_NO_MEDIA",
	EFI_MEDIA_CHANGED:        "EFI_MEDIA_CHANGED",
	EFI_NOT_FOUND:            "EFI_NOT_FOUND",
	EFI_ACCESS_DENIED:        "EFI_ACCESS_DENIED",
	EFI_NO_RESPONSE:          "EFI_NO_RESPONSE",
	EFI_NO_MAPPING:           "EFI_NO_MAPPING",
	EFI_TIMEOUT:              "EFI_TIMEOUT",
	EFI_NOT_STARTED:          "EFI_NOT_STARTED",
	EFI_ALREADY_STARTED:      "EFI_ALREADY_STARTED",
	EFI_ABORTED:              "EFI_ABORTED",
	EFI_ICMP_ERROR:           "EFI_ICMP_ERROR",
	EFI_TFTP_ERROR:           "EFI_TFTP_ERROR",
	EFI_PROTOCOL_ERROR:       "EFI_PROTOCOL_ERROR",
	EFI_INCOMPATIBLE_VERSION: "EFI_INCOMPATIBLE_VERSION",
	EFI_SECURITY_VIOLATION:   "EFI_SECURITY_VIOLATION",
}

// Status represents a non-successful EFI_STATUS returned by a firmware
// service.
type Status uint64

// Code returns the status code without the error bit.
func (s Status) Code() uint64 {
	return uint64(s) &^ errorBit
}

// Error implements the error interface.
func (s Status) Error() string {
	if name, ok := statusNames[s.Code()]; ok {
		return fmt.Sprintf("EFI_STATUS error %#x (%s)", uint64(s), name)
	}

	return fmt.Sprintf("EFI_STATUS error %#x (%d)", uint64(s), s.Code())
}

// NewStatus returns the error representation of an EFI_STATUS code, the
// error bit is added if missing.
func NewStatus(code uint64) Status {
	return Status(code | errorBit)
}

// IsStatus reports whether any error in err's chain is an EFI_STATUS error
// matching the argument error code.
func IsStatus(err error, code uint64) bool {
	var s Status

	if !errors.As(err, &s) {
		return false
	}

	return uint64(s) == code|errorBit
}

// parseStatus converts an EFI_STATUS to an error, warnings (error bit clear)
// report a completed operation and are not errors.
func parseStatus(status uint64) (err error) {
	if status&errorBit == 0 {
		return
	}

	return Status(status)
}
