package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// progressPrinter redraws a single status line while a file is ingested.
// Nothing is printed when the output is not a terminal.
type progressPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	active bool
	drawn  bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, active: isTerminal(w)}
}

func (p *progressPrinter) update(r domain.IngestReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	line := fmt.Sprintf("%s: %d chunks, %d batches", r.Source, r.Chunks, r.Batches)
	if r.FailedBatches > 0 {
		line += fmt.Sprintf(", %d failed", r.FailedBatches)
	}
	fmt.Fprintf(p.w, "\r\033[K%s", mutedStyle.Render(line))
	p.drawn = true
}

// done clears the status line.
func (p *progressPrinter) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprint(p.w, "\r\033[K")
		p.drawn = false
	}
}
