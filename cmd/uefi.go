// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"bytes"
	"fmt"
	"log"
	"regexp"

	"github.com/usbarmory/go-hii/shell"
	"github.com/usbarmory/go-hii/uefi"
	"github.com/usbarmory/go-hii/uefi/x64"
)

func init() {
	shell.Add(shell.Cmd{
		Name: "uefi",
		Help: "UEFI information",
		Fn:   uefiCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "protocol",
		Args:    1,
		Pattern: regexp.MustCompile(`^protocol (` + guidPattern + `)$`),
		Syntax:  "<registry format GUID>",
		Help:    "EFI_BOOT_SERVICES.LocateProtocol()",
		Fn:      locateCmd,
	})

	shell.Add(shell.Cmd{
		Name: "memmap",
		Help: "EFI_BOOT_SERVICES.GetMemoryMap()",
		Fn:   memmapCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "reset",
		Args:    1,
		Pattern: regexp.MustCompile(`^reset(?: (cold|warm|shutdown))?$`),
		Help:    "EFI_RUNTIME_SERVICES.ResetSystem()",
		Syntax:  "(cold|warm|shutdown)?",
		Fn:      resetCmd,
	})
}

func uefiCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer

	t := x64.UEFI.SystemTable

	if t == nil {
		return "", fmt.Errorf("EFI services are not initialized")
	}

	fmt.Fprintf(&buf, "Firmware Vendor ....: %s\n", x64.UEFI.FirmwareVendor())
	fmt.Fprintf(&buf, "Firmware Revision ..: %#x\n", t.FirmwareRevision)
	fmt.Fprintf(&buf, "Runtime Services  ..: %#x\n", t.RuntimeServices)
	fmt.Fprintf(&buf, "Boot Services ......: %#x\n", t.BootServices)
	fmt.Fprintf(&buf, "Configuration Tables: %#x (%d)\n", t.ConfigurationTable, t.NumberOfTableEntries)

	if db, err := x64.UEFI.Boot.GetHIIDatabase(); err == nil {
		fmt.Fprintf(&buf, "HII Database .......: %#x\n", db.Address())
	}

	return buf.String(), nil
}

func locateCmd(_ *shell.Interface, arg []string) (res string, err error) {
	guid, err := uefi.ParseGUID(arg[0])

	if err != nil {
		return
	}

	addr, err := x64.UEFI.Boot.LocateProtocol(guid)

	return fmt.Sprintf("%s: %#08x", guid, addr), err
}

func memmapCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer
	var memoryMap *uefi.MemoryMap

	if memoryMap, err = x64.UEFI.Boot.GetMemoryMap(); err != nil {
		return
	}

	fmt.Fprintf(&buf, "Type Start            End              Pages            Attributes\n")

	for _, desc := range memoryMap.Descriptors {
		fmt.Fprintf(&buf, "%02d   %016x %016x %016x %016x\n",
			desc.Type, desc.PhysicalStart, desc.PhysicalEnd()-1, desc.NumberOfPages, desc.Attribute)
	}

	return buf.String(), err
}

func resetCmd(_ *shell.Interface, arg []string) (_ string, err error) {
	var resetType int

	switch arg[0] {
	case "cold":
		resetType = uefi.EfiResetCold
	case "warm", "":
		resetType = uefi.EfiResetWarm
	case "shutdown":
		resetType = uefi.EfiResetShutdown
	}

	log.Printf("performing system reset type %d", resetType)
	err = x64.UEFI.Runtime.ResetSystem(resetType, "hii shell reset")

	return
}
