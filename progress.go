package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// rowProgressInterval is how many documents pass between progress updates.
const rowProgressInterval = 1000

// progressPrinter rewrites a single status line on w. Safe for concurrent use.
type progressPrinter struct {
	w     io.Writer
	label string

	mu     sync.Mutex
	active bool
}

func newProgressPrinter(w io.Writer, label string) *progressPrinter {
	return &progressPrinter{w: w, label: label}
}

// Rows reports the running document count. Only every rowProgressInterval-th call prints.
func (p *progressPrinter) Rows(n uint64) {
	if p == nil || n%rowProgressInterval != 0 {
		return
	}
	p.print(fmt.Sprintf("%s: %s documents", p.label, humanize.Comma(int64(n))))
}

// Columns reports scan-all progress.
func (p *progressPrinter) Columns(completed, total int) {
	if p == nil {
		return
	}
	p.print(fmt.Sprintf("%s: %d/%d columns", p.label, completed, total))
}

// Done ends the status line if anything was printed.
func (p *progressPrinter) Done() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprintln(p.w)
		p.active = false
	}
}

func (p *progressPrinter) print(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// \033[K clears whatever a longer previous line left behind.
	fmt.Fprintf(p.w, "\r%s\033[K", line)
	p.active = true
}
