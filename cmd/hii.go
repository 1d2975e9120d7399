// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/usbarmory/go-hii/hii"
	"github.com/usbarmory/go-hii/shell"
	"github.com/usbarmory/go-hii/uefi"
	"github.com/usbarmory/go-hii/uefi/x64"
)

const guidPattern = `[[:xdigit:]]{8}-[[:xdigit:]]{4}-[[:xdigit:]]{4}-[[:xdigit:]]{4}-[[:xdigit:]]{12}`

// maximum export dump size
const maxDump = 4096

var lib *hii.Library

func init() {
	shell.Add(shell.Cmd{
		Name: "hii",
		Help: "list HII package lists",
		Fn:   hiiCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii list",
		Args:    2,
		Pattern: regexp.MustCompile(`^hii list (\w+)(?: (` + guidPattern + `))?$`),
		Syntax:  "<type> (<registry format GUID>)?",
		Help:    "EFI_HII_DATABASE_PROTOCOL.ListPackageLists()",
		Fn:      hiiListCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii export",
		Args:    1,
		Pattern: regexp.MustCompile(`^hii export(?: ([[:xdigit:]x]+))?$`),
		Syntax:  "(<handle>)?",
		Help:    "EFI_HII_DATABASE_PROTOCOL.ExportPackageLists()",
		Fn:      hiiExportCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii guid",
		Args:    1,
		Pattern: regexp.MustCompile(`^hii guid ([[:xdigit:]x]+)$`),
		Syntax:  "<handle>",
		Help:    "package list GUID",
		Fn:      hiiGUIDCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii valid",
		Args:    1,
		Pattern: regexp.MustCompile(`^hii valid ([[:xdigit:]x]+)$`),
		Syntax:  "<handle>",
		Help:    "check handle registration",
		Fn:      hiiValidCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii rm",
		Args:    1,
		Pattern: regexp.MustCompile(`^hii rm ([[:xdigit:]x]+)$`),
		Syntax:  "<handle>",
		Help:    "EFI_HII_DATABASE_PROTOCOL.RemovePackageList()",
		Fn:      hiiRemoveCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii add",
		Args:    2,
		Pattern: regexp.MustCompile(`^hii add (` + guidPattern + `)((?: [[:xdigit:]]+)*)$`),
		Syntax:  "<registry format GUID> (<hex package>)*",
		Help:    "EFI_HII_DATABASE_PROTOCOL.NewPackageList()",
		Fn:      hiiAddCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "hii path",
		Args:    1,
		Pattern: regexp.MustCompile(`^hii path ([[:xdigit:]]+)$`),
		Syntax:  "<hex device path>",
		Help:    "device path to HII handle",
		Fn:      hiiPathCmd,
	})
}

func library() (*hii.Library, error) {
	if lib != nil {
		return lib, nil
	}

	if x64.UEFI.Boot == nil {
		return nil, errors.New("EFI services are not initialized")
	}

	db, err := x64.UEFI.Boot.GetHIIDatabase()

	if err != nil {
		return nil, fmt.Errorf("could not locate HII database, %w", err)
	}

	lib = hii.New(db, x64.UEFI.Boot)
	lib.Allocator = x64.UEFI.Boot.Pool()
	lib.Log = log.Default()

	return lib, nil
}

func parseHandle(s string) (hii.Handle, error) {
	h, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)

	if err != nil {
		return 0, fmt.Errorf("invalid handle, %v", err)
	}

	return hii.Handle(h), nil
}

func hiiCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer

	l, err := library()

	if err != nil {
		return
	}

	handles, err := l.Handles()

	if err != nil {
		return
	}

	fmt.Fprintf(&buf, "Handle           GUID                                 Driver           Packages\n")

	for _, h := range handles {
		pl, err := l.PackageList(h)

		if err != nil {
			fmt.Fprintf(&buf, "%016x %v\n", uint64(h), err)
			continue
		}

		var types []string

		for _, p := range pl.Packages {
			types = append(types, hii.PackageTypeName(p.Type))
		}

		driver, err := l.DriverHandle(h)

		if err != nil {
			fmt.Fprintf(&buf, "%016x %s %v\n", uint64(h), pl.GUID, err)
			continue
		}

		fmt.Fprintf(&buf, "%016x %s %016x %s\n", uint64(h), pl.GUID, driver, strings.Join(types, ","))
	}

	return buf.String(), nil
}

func hiiListCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var guid *uefi.GUID
	var buf bytes.Buffer

	l, err := library()

	if err != nil {
		return
	}

	t, err := hii.ParsePackageType(arg[0])

	if err != nil {
		return
	}

	if len(arg[1]) > 0 {
		g, err := uefi.ParseGUID(arg[1])

		if err != nil {
			return "", err
		}

		guid = &g
	}

	handles, err := l.ListPackageLists(t, guid)

	if err != nil {
		return
	}

	for _, h := range handles {
		fmt.Fprintf(&buf, "%s\n", h)
	}

	return buf.String(), nil
}

func hiiExportCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var h hii.Handle
	var buf bytes.Buffer

	l, err := library()

	if err != nil {
		return
	}

	if len(arg[0]) > 0 {
		if h, err = parseHandle(arg[0]); err != nil {
			return
		}
	}

	b, err := l.ExportPackageLists(h)

	if err != nil {
		return
	}

	lists, err := hii.ParsePackageLists(b)

	if err != nil {
		log.Printf("could not parse export, %v", err)
	}

	for _, pl := range lists {
		fmt.Fprintf(&buf, "%s (%d bytes)\n", pl.GUID, pl.Length)

		for _, p := range pl.Packages {
			fmt.Fprintf(&buf, "  %-12s %d bytes\n", hii.PackageTypeName(p.Type), p.Length)
		}
	}

	if len(b) > maxDump {
		fmt.Fprintf(&buf, "%s... (%d bytes)\n", hex.Dump(b[:maxDump]), len(b))
	} else {
		fmt.Fprint(&buf, hex.Dump(b))
	}

	return buf.String(), nil
}

func hiiGUIDCmd(_ *shell.Interface, arg []string) (res string, err error) {
	l, err := library()

	if err != nil {
		return
	}

	h, err := parseHandle(arg[0])

	if err != nil {
		return
	}

	guid, err := l.ExtractGUID(h)

	return guid.String(), err
}

func hiiValidCmd(_ *shell.Interface, arg []string) (res string, err error) {
	l, err := library()

	if err != nil {
		return
	}

	h, err := parseHandle(arg[0])

	if err != nil {
		return
	}

	return fmt.Sprintf("%s: %v", h, l.IsRegistered(h)), nil
}

func hiiRemoveCmd(_ *shell.Interface, arg []string) (res string, err error) {
	l, err := library()

	if err != nil {
		return
	}

	h, err := parseHandle(arg[0])

	if err != nil {
		return
	}

	return "", l.RemovePackages(h)
}

func hiiAddCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var packages [][]byte

	l, err := library()

	if err != nil {
		return
	}

	guid, err := uefi.ParseGUID(arg[0])

	if err != nil {
		return
	}

	for _, s := range strings.Fields(arg[1]) {
		p, err := hex.DecodeString(s)

		if err != nil {
			return "", fmt.Errorf("invalid package, %v", err)
		}

		packages = append(packages, p)
	}

	h, err := l.AddPackages(guid, 0, packages)

	if err != nil {
		return
	}

	return h.String(), nil
}

func hiiPathCmd(_ *shell.Interface, arg []string) (res string, err error) {
	l, err := library()

	if err != nil {
		return
	}

	path, err := hex.DecodeString(arg[0])

	if err != nil {
		return "", fmt.Errorf("invalid device path, %v", err)
	}

	h, err := l.DevicePathToHandle(path)

	if err != nil {
		return
	}

	return fmt.Sprintf("%s: %s", hii.DevicePathString(path), h), nil
}
