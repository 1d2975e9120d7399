// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package shell implements a terminal console handler for user defined
// commands.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/term"
)

// Interface represents a terminal interface.
type Interface struct {
	// Banner represents the welcome message
	Banner string

	// ReadWriter represents the terminal connection
	ReadWriter io.ReadWriter

	// VT100 enables the colored prompt
	VT100 bool
}

func helpCmd(_ *Interface, _ []string) (string, error) {
	return Help(), nil
}

func (iface *Interface) handleLine(line string, w io.Writer) (err error) {
	var res string

	cmd, arg := match(line)

	if cmd == nil {
		return errors.New("unknown command, type `help`")
	}

	if res, err = cmd.Fn(iface, arg); err != nil {
		return
	}

	if len(res) > 0 {
		fmt.Fprintln(w, res)
	}

	return
}

func (iface *Interface) readLine(t *term.Terminal, w io.Writer) error {
	s, err := t.ReadLine()

	if err == io.EOF {
		return err
	}

	if err != nil {
		log.Printf("readline error, %v", err)
		return nil
	}

	if err = iface.handleLine(s, w); err != nil {
		if err == io.EOF {
			return err
		}

		fmt.Fprintf(w, "command error, %v\n", err)
	}

	return nil
}

// Start handles registered commands over the interface ReadWriter until the
// connection, or a command, returns [io.EOF].
func (iface *Interface) Start() {
	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	t := term.NewTerminal(iface.ReadWriter, "> ")
	w := io.Writer(t)

	if iface.VT100 {
		t.SetPrompt(string(t.Escape.Red) + "> " + string(t.Escape.Reset))
	}

	fmt.Fprintf(t, "\n%s\n\n", iface.Banner)
	fmt.Fprintf(t, "%s\n", Help())

	for {
		if err := iface.readLine(t, w); err != nil {
			return
		}
	}
}
