package cli

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// progress prints record counts to w once a second while a Reader
// iterates, and a summary line when the iteration ends.
type progress struct {
	w     io.Writer
	title string

	total int64
	count int64
	start time.Time

	// shutdown stops the report goroutine and carries its
	// acknowledgement back. It must stay unbuffered.
	shutdown chan struct{}
}

func newProgress(w io.Writer, title string) *progress {
	return &progress{w: w, title: title}
}

func (p *progress) Start(total int) {
	atomic.StoreInt64(&p.count, 0)
	p.total = int64(total)
	p.start = time.Now()
	p.shutdown = make(chan struct{})
	go p.report(p.shutdown)
}

func (p *progress) Advance(n int) {
	atomic.AddInt64(&p.count, int64(n))
}

func (p *progress) Done() {
	if p.shutdown == nil {
		return
	}
	p.shutdown <- struct{}{}
	<-p.shutdown
	p.shutdown = nil

	p.reportOnce()
	fmt.Fprintf(p.w, "%s: done in %v\n", p.title, time.Since(p.start).Round(time.Millisecond))
}

func (p *progress) report(shutdown chan struct{}) {
	for {
		select {
		case <-time.After(time.Second):
			p.reportOnce()
		case <-shutdown:
			shutdown <- struct{}{}
			return
		}
	}
}

func (p *progress) reportOnce() {
	count := atomic.LoadInt64(&p.count)
	elapsed := time.Since(p.start)
	pct := ""
	if p.total > 0 {
		pct = fmt.Sprintf("[%.2f%%] ", 100*float64(count)/float64(p.total))
	}
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(count) / secs
	}
	fmt.Fprintf(p.w, "%s: %s%s of %s records, %s records/sec\n",
		p.title, pct, humanize.Comma(count), humanize.Comma(p.total),
		humanize.CommafWithDigits(rate, 1))
}
