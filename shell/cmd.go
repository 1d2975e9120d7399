// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"text/tabwriter"
)

// CmdFn represents a command handler.
type CmdFn func(iface *Interface, arg []string) (res string, err error)

// Cmd represents a shell command.
type Cmd struct {
	// Name represents the command name, as listed by help.
	Name string
	// Args represents the number of Pattern submatches passed to Fn.
	Args int
	// Pattern represents the command line matching expression, an exact
	// match against Name is performed when nil.
	Pattern *regexp.Regexp
	// Syntax represents the help argument syntax.
	Syntax string
	// Help represents the help description.
	Help string
	// Fn represents the command handler.
	Fn CmdFn
}

var cmds = make(map[string]*Cmd)

// Add registers a shell command, replacing any previous command with the
// same name.
func Add(cmd Cmd) {
	cmds[cmd.Name] = &cmd
}

func sorted() (list []*Cmd) {
	for _, cmd := range cmds {
		list = append(list, cmd)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return
}

// Help returns the list of registered commands.
func Help() string {
	var buf bytes.Buffer

	t := tabwriter.NewWriter(&buf, 16, 8, 0, '\t', tabwriter.TabIndent)

	for _, cmd := range sorted() {
		fmt.Fprintf(t, "%s\t%s\t # %s\n", cmd.Name, cmd.Syntax, cmd.Help)
	}

	t.Flush()

	return buf.String()
}

func match(line string) (cmd *Cmd, arg []string) {
	for _, cmd = range sorted() {
		if cmd.Pattern == nil {
			if cmd.Name == line {
				return cmd, nil
			}
		} else if m := cmd.Pattern.FindStringSubmatch(line); len(m) > 0 && (len(m)-1 == cmd.Args) {
			return cmd, m[1:]
		}
	}

	return nil, nil
}
