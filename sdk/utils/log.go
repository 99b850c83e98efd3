// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	logMu    sync.Mutex
	logOut   io.Writer = os.Stderr
	logDebug           = os.Getenv("FSREG_DEBUG") != ""
)

// SetLogOutput redirects the helpers below and returns the previous writer.
func SetLogOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOut
	logOut = w
	return prev
}

func SetDebug(enabled bool) {
	logMu.Lock()
	logDebug = enabled
	logMu.Unlock()
}

func logf(level, format string, a ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(logOut, "["+level+"] "+format+"\n", a...)
}

func Infof(format string, a ...any)  { logf("INFO", format, a...) }
func Warnf(format string, a ...any)  { logf("WARN", format, a...) }
func Errorf(format string, a ...any) { logf("ERROR", format, a...) }

func Debugf(format string, a ...any) {
	logMu.Lock()
	on := logDebug
	logMu.Unlock()
	if on {
		logf("DEBUG", format, a...)
	}
}
