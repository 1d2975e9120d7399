// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package main

import (
	"fmt"
	"log"
	"runtime"

	_ "github.com/usbarmory/go-hii/cmd"
	"github.com/usbarmory/go-hii/shell"
	"github.com/usbarmory/go-hii/uefi/x64"
)

func init() {
	log.SetFlags(0)
	log.SetOutput(x64.Console)
}

func main() {
	if x64.UEFI.Console == nil {
		log.Fatal("could not initialize EFI console")
	}

	log.SetOutput(x64.UEFI.Console)

	console := &shell.Interface{
		Banner: fmt.Sprintf("%s/%s (%s) • UEFI HII shell",
			runtime.GOOS, runtime.GOARCH, runtime.Version()),
		ReadWriter: x64.UEFI.Console,
	}

	console.Start()

	if err := x64.UEFI.Boot.Exit(0); err != nil {
		log.Printf("could not exit, %v", err)
	}

	runtime.Exit(0)
}
