// Package output renders everything the bot shows to an operator: the
// emoji-tagged phase log and the summary tables.
//
// Log lines flow through a Logger, which fans each line out to one or more
// Handlers. The console handler colours lines for a terminal; the zerolog
// handler mirrors the same events as structured JSON for a log file; the
// Recorder keeps them in memory for tests.
package output

import (
	"fmt"
	"strings"
)

// Category is the fixed set of log channels.
type Category int

const (
	CategoryInfo Category = iota
	CategorySuccess
	CategoryWarning
	CategoryError
	CategoryProcessing
	CategoryNetwork
	CategoryWallet
	CategoryUpload
	CategoryDownload
	CategoryDivider
	CategoryResult
)

var categoryNames = map[Category]string{
	CategoryInfo:       "info",
	CategorySuccess:    "success",
	CategoryWarning:    "warning",
	CategoryError:      "error",
	CategoryProcessing: "processing",
	CategoryNetwork:    "network",
	CategoryWallet:     "wallet",
	CategoryUpload:     "upload",
	CategoryDownload:   "download",
	CategoryDivider:    "divider",
	CategoryResult:     "result",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// DividerLine separates phases in the console output.
const DividerLine = "═════════════════════════════════════════"

// Handler receives fully formatted log lines.
type Handler interface {
	Handle(cat Category, msg string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cat Category, msg string)

func (f HandlerFunc) Handle(cat Category, msg string) { f(cat, msg) }

// Logger is the sink every component logs through. A nil *Logger discards.
type Logger struct {
	handlers []Handler
}

// New returns a Logger that forwards to every handler in order.
func New(handlers ...Handler) *Logger {
	return &Logger{handlers: handlers}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{}
}

func (l *Logger) log(cat Category, format string, args ...any) {
	if l == nil || len(l.handlers) == 0 {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	for _, h := range l.handlers {
		h.Handle(cat, msg)
	}
}

func (l *Logger) Info(format string, args ...any)       { l.log(CategoryInfo, format, args...) }
func (l *Logger) Success(format string, args ...any)    { l.log(CategorySuccess, format, args...) }
func (l *Logger) Warning(format string, args ...any)    { l.log(CategoryWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)      { l.log(CategoryError, format, args...) }
func (l *Logger) Processing(format string, args ...any) { l.log(CategoryProcessing, format, args...) }
func (l *Logger) Network(format string, args ...any)    { l.log(CategoryNetwork, format, args...) }
func (l *Logger) Wallet(format string, args ...any)     { l.log(CategoryWallet, format, args...) }
func (l *Logger) Upload(format string, args ...any)     { l.log(CategoryUpload, format, args...) }
func (l *Logger) Download(format string, args ...any)   { l.log(CategoryDownload, format, args...) }

// Divider prints a horizontal rule.
func (l *Logger) Divider() { l.log(CategoryDivider, DividerLine) }

// Result prints an indented key/value pair, e.g. an object id.
func (l *Logger) Result(key, value string) {
	l.log(CategoryResult, "   %-15s: %s", key, value)
}

// FormatKB renders a byte count the way download/upload lines show sizes.
func FormatKB(n int) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

// Mask hides all but the first and last few characters of a secret.
func Mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
