// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"strings"
)

const (
	// EFI ConOut offset for OutputString
	outputString = 0x08
	// EFI ConOut offset for ClearScreen
	clearScreen = 0x30
	// EFI ConIn offset for ReadKeyStroke
	readKeyStroke = 0x08
)

// InputKey represents an EFI Input Key descriptor.
type InputKey struct {
	ScanCode    uint16
	UnicodeChar [2]byte
}

// Console implements the [io.ReadWriter] interface over EFI Simple Text
// Input/Output protocol.
type Console struct {
	// ForceLine controls whether line feeds (LF) should be supplemented
	// with a carriage return (CR).
	ForceLine bool

	// ReplaceTabs controls whether Console I/O output should have Tab
	// characters replaced with a number of spaces.
	ReplaceTabs int

	// In represents the EFI_SIMPLE_TEXT_INPUT_PROTOCOL instance.
	In uint64
	// Out represents the EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL instance.
	Out uint64
}

// Input calls EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (c *Console) Input(k *InputKey) (status uint64) {
	if c.In == 0 {
		return errorBit | EFI_NOT_READY
	}

	return callService(c.In+readKeyStroke,
		[]uint64{
			c.In,
			ptrval(k),
		},
	)
}

// Output calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString() with a
// null-terminated UEFI string.
func (c *Console) Output(p []byte) (status uint64) {
	if c.Out == 0 || len(p) == 0 {
		return
	}

	if len(p) < 2 || p[len(p)-2] != 0x00 || p[len(p)-1] != 0x00 {
		p = append(p, 0x00, 0x00)
	}

	return callService(c.Out+outputString,
		[]uint64{
			c.Out,
			ptrval(&p[0]),
		},
	)
}

// ClearScreen calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.ClearScreen().
func (c *Console) ClearScreen() (err error) {
	if c.Out == 0 {
		return
	}

	status := callService(c.Out+clearScreen,
		[]uint64{
			c.Out,
		},
	)

	return parseStatus(status)
}

// Read available data to buffer from console.
func (c *Console) Read(p []byte) (n int, err error) {
	k := &InputKey{}

	for n = 0; n+1 < len(p); n += 2 {
		status := c.Input(k)

		switch {
		case status == EFI_SUCCESS:
			copy(p[n:], k.UnicodeChar[:])
		case status == errorBit|EFI_NOT_READY:
			return
		default:
			return n, parseStatus(status)
		}
	}

	return
}

// Write data from buffer to console.
func (c *Console) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}

	s := string(p)

	if c.ReplaceTabs > 0 {
		s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", c.ReplaceTabs))
	}

	if c.ForceLine {
		s = strings.ReplaceAll(s, "\n", "\n\r")
	}

	if status := c.Output(toUTF16(s)); status != EFI_SUCCESS {
		return 0, parseStatus(status)
	}

	return len(p), nil
}
