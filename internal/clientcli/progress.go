package clientcli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// TransferProgress tracks and displays transfer progress on stderr.
// Output degrades to a single summary line when stderr is not a
// terminal.
type TransferProgress struct {
	total      int64
	operation  string
	startTime  time.Time
	done       chan struct{}
	mu         sync.Mutex
	current    int64
	isTerminal bool
	termWidth  int
}

// NewTransferProgress creates a progress tracker for total bytes.
func NewTransferProgress(total int64, operation string) *TransferProgress {
	width := 80
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	if isTerminal {
		if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return &TransferProgress{
		total:      total,
		operation:  operation,
		startTime:  time.Now(),
		done:       make(chan struct{}),
		isTerminal: isTerminal,
		termWidth:  width,
	}
}

// Add increments the transferred byte count.
func (p *TransferProgress) Add(delta int64) {
	p.mu.Lock()
	p.current += delta
	p.mu.Unlock()
}

// Start begins rendering the progress bar.
func (p *TransferProgress) Start() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-p.done:
				p.render(true)
				return
			case <-ticker.C:
				p.render(false)
			}
		}
	}()
}

// Finish stops the progress bar and prints the final state.
func (p *TransferProgress) Finish() {
	select {
	case <-p.done:
		return
	default:
	}
	close(p.done)
	time.Sleep(50 * time.Millisecond)
}

func (p *TransferProgress) render(final bool) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	elapsed := time.Since(p.startTime).Seconds()
	if elapsed < 0.001 {
		elapsed = 0.001
	}
	speed := float64(current) / elapsed
	speedStr := formatBytes(int64(speed)) + "/s"

	if !p.isTerminal {
		if final {
			fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", p.operation, formatBytes(current), speedStr)
		}
		return
	}

	percent := float64(0)
	if p.total > 0 {
		percent = float64(current) / float64(p.total) * 100
	}

	barWidth := 30
	if p.termWidth < 80 {
		barWidth = 20
	}
	filled := int(percent / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		if !final {
			bar += ">"
			bar += strings.Repeat(" ", barWidth-filled-1)
		} else {
			bar += strings.Repeat(" ", barWidth-filled)
		}
	}

	line := fmt.Sprintf("\r%s [%s] %5.1f%% %s/%s %s",
		p.operation, bar, percent, formatBytes(current), formatBytes(p.total), speedStr)
	if speed > 0 && current < p.total && !final {
		remaining := float64(p.total-current) / speed
		line += " ETA " + formatDuration(time.Duration(remaining)*time.Second)
	}
	if len(line) < p.termWidth {
		line += strings.Repeat(" ", p.termWidth-len(line))
	}

	fmt.Fprint(os.Stderr, line)
	if final {
		fmt.Fprintln(os.Stderr)
	}
}

// ProgressReader wraps a reader and updates progress as bytes flow.
type ProgressReader struct {
	r        io.Reader
	progress *TransferProgress
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.progress.Add(int64(n))
	}
	return n, err
}

// ProgressWriter wraps a writer and updates progress as bytes flow.
type ProgressWriter struct {
	w        io.Writer
	progress *TransferProgress
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.progress.Add(int64(n))
	}
	return n, err
}
