// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"testing"
)

func TestToUTF16(t *testing.T) {
	expected := []byte{'H', 0, 'I', 0, 'I', 0, 0, 0}

	if buf := toUTF16("HII"); !bytes.Equal(buf, expected) {
		t.Fatalf("unexpected encoding %x", buf)
	}

	if buf := toUTF16(""); !bytes.Equal(buf, []byte{0, 0}) {
		t.Fatalf("unexpected empty encoding %x", buf)
	}
}

func TestFromUTF16(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{[]byte{'E', 0, 'D', 0, 'K', 0, 0, 0, 'X', 0}, "EDK"},
		{[]byte{'E', 0, 'D', 0}, "ED"},
		{[]byte{'E', 0, 'D'}, "E"},
		{[]byte{0xac, 0x20, 0, 0}, "€"},
		{nil, ""},
	}

	for _, tc := range tests {
		if got := DecodeString(tc.input); got != tc.want {
			t.Errorf("%x: expected %q, got %q", tc.input, tc.want, got)
		}
	}
}
