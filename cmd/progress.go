package cmd

import (
	"fmt"
	"io"
	"sync"
)

// cliProgress prints coarse progress lines. It reports for both the XML importer and the
// table backup, which name their units sources and tables respectively.
type cliProgress struct {
	mu          sync.Mutex
	out         io.Writer
	verb        string
	totals      map[string]int
	counts      map[string]int
	lastPrinted map[string]int
}

func newCLIProgress(out io.Writer, verb string) *cliProgress {
	return &cliProgress{
		out:         out,
		verb:        verb,
		totals:      make(map[string]int),
		counts:      make(map[string]int),
		lastPrinted: make(map[string]int),
	}
}

// Start begins an importer source; its size is unknown up front.
func (p *cliProgress) Start(source string) { p.StartTable(source, 0) }

// Finish ends an importer source.
func (p *cliProgress) Finish(source string, total int) {
	p.mu.Lock()
	p.totals[source] = total
	p.mu.Unlock()
	p.FinishTable(source)
}

func (p *cliProgress) StartTable(table string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total < 0 {
		total = 0
	}
	p.totals[table] = total
	p.counts[table] = 0
	p.lastPrinted[table] = 0
	if total > 0 {
		fmt.Fprintf(p.out, "%s %s (%d rows)\n", p.verb, table, total)
	} else {
		fmt.Fprintf(p.out, "%s %s\n", p.verb, table)
	}
}

func (p *cliProgress) Increment(table string, delta int) {
	if delta <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.counts[table] + delta
	p.counts[table] = current
	total := p.totals[table]
	last := p.lastPrinted[table]
	if current == total || current-last >= progressStep(total) {
		p.printProgress(table, current, total)
		p.lastPrinted[table] = current
	}
}

func (p *cliProgress) FinishTable(table string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.counts[table]
	total := p.totals[table]
	if total > 0 && current != total {
		current = total
	}
	fmt.Fprintf(p.out, "done %s: %d\n", table, current)
	delete(p.counts, table)
	delete(p.totals, table)
	delete(p.lastPrinted, table)
}

func (p *cliProgress) printProgress(table string, current, total int) {
	if total > 0 {
		fmt.Fprintf(p.out, "  %s: %d/%d\n", table, current, total)
	} else {
		fmt.Fprintf(p.out, "  %s: %d\n", table, current)
	}
}

func progressStep(total int) int {
	if total <= 0 {
		return 10000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 10000 {
		step = 10000
	}
	return step
}
