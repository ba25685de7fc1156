package dfslog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Handler is a slog.Handler that renders records as single lines,
// colorizing the level when the destination is a terminal.
type Handler struct {
	mu       *sync.Mutex
	out      io.Writer
	source   string
	minLevel slog.Level
	colorize bool
	attrs    []slog.Attr
	groups   []string
}

// NewHandler creates a Handler writing to out. Color output is enabled
// only when out is a terminal.
func NewHandler(out io.Writer, source string, minLevel slog.Level) *Handler {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = term.IsTerminal(int(f.Fd()))
	}
	return &Handler{
		mu:       &sync.Mutex{},
		out:      out,
		source:   source,
		minLevel: minLevel,
		colorize: colorize,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

// Handle renders and writes the Record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelText(r.Level))
	b.WriteByte(' ')
	if h.source != "" {
		b.WriteByte('[')
		b.WriteString(h.source)
		b.WriteString("] ")
	}
	b.WriteString(r.Message)

	for _, attr := range h.attrs {
		h.writeAttr(&b, attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &newH
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	newH := *h
	newH.groups = append(append([]string{}, h.groups...), name)
	return &newH
}

func (h *Handler) writeAttr(b *strings.Builder, a slog.Attr) {
	key := a.Key
	for _, g := range h.groups {
		key = g + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value)
}

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

func (h *Handler) levelText(level slog.Level) string {
	text := fmt.Sprintf("%-5s", level.String())
	if !h.colorize {
		return text
	}
	switch {
	case level >= slog.LevelError:
		return errColor.Sprint(text)
	case level >= slog.LevelWarn:
		return warnColor.Sprint(text)
	case level >= slog.LevelInfo:
		return infoColor.Sprint(text)
	default:
		return debugColor.Sprint(text)
	}
}
