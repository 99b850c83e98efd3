// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

/* ------------ tiny UI helpers for single-line progress ------------ */

var spinner = []rune{'|', '/', '-', '\\'}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ProgressBar renders batch progress on a single terminal line.
type ProgressBar struct {
	mu       sync.Mutex
	out      io.Writer
	percent  int
	message  string
	spinIdx  int
	lastTick time.Time
}

func NewProgressBar(out io.Writer) *ProgressBar {
	if out == nil {
		out = os.Stderr
	}
	return &ProgressBar{out: out}
}

// Update sets the overall percentage and the current step label.
func (p *ProgressBar) Update(percent int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	force := percent != p.percent || message != p.message
	p.percent = percent
	p.message = message
	p.render(force, "")
}

// Bytes shows per-file transfer progress next to the batch percentage.
func (p *ProgressBar) Bytes(key string, written, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	detail := fmt.Sprintf("%s %s / %s", key, HumanSize(written), HumanSize(total))
	p.render(written == total, detail)
}

func (p *ProgressBar) render(force bool, detail string) {
	// throttling: update ~10 times each second
	if !force && time.Since(p.lastTick) < 100*time.Millisecond {
		return
	}
	p.lastTick = time.Now()

	ch := spinner[p.spinIdx%len(spinner)]
	p.spinIdx++
	line := fmt.Sprintf("\rProgress: %3d%% [%c] %s", p.percent, ch, p.message)
	if detail != "" {
		line += " (" + detail + ")"
	}
	fmt.Fprint(p.out, line+"   ")
}

func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render(true, "")
	fmt.Fprintln(p.out)
}
