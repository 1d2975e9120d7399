// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

// UEFI strings are UCS-2, little-endian and without byte order mark.
var ucs2 = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// toUTF16 converts a Go string to a null-terminated UEFI string.
func toUTF16(s string) []byte {
	buf, err := ucs2.NewEncoder().Bytes([]byte(s))

	if err != nil {
		return []byte{0x00, 0x00}
	}

	return append(buf, 0x00, 0x00)
}

// fromUTF16 converts an UEFI string, terminated either by its first null
// character or by the buffer end, to a Go string.
func fromUTF16(buf []byte) string {
	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] == 0x00 && buf[i+1] == 0x00 {
			buf = buf[:i]
			break
		}
	}

	if len(buf)%2 != 0 {
		buf = buf[:len(buf)-1]
	}

	s, err := ucs2.NewDecoder().Bytes(buf)

	if err != nil {
		return ""
	}

	return string(bytes.ToValidUTF8(s, []byte("?")))
}

// DecodeString converts an UEFI string to a Go string.
func DecodeString(buf []byte) string {
	return fromUTF16(buf)
}
