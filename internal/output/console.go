package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var symbols = map[Category]string{
	CategoryInfo:       "📌",
	CategorySuccess:    "✅",
	CategoryError:      "❌",
	CategoryWarning:    "⚠️",
	CategoryProcessing: "🔄",
	CategoryWallet:     "👛",
	CategoryUpload:     "📤",
	CategoryDownload:   "📥",
	CategoryNetwork:    "🌐",
}

var (
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

// Console writes emoji-tagged, coloured lines to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a console handler writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Handle(cat Category, msg string) {
	var line string
	switch cat {
	case CategoryDivider:
		line = dim(msg)
	case CategoryResult:
		line = msg
	default:
		line = fmt.Sprintf("%s %s", symbols[cat], paint(cat, msg))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

func paint(cat Category, msg string) string {
	switch cat {
	case CategorySuccess:
		return green(msg)
	case CategoryError:
		return red(msg)
	case CategoryWarning:
		return yellow(msg)
	case CategoryProcessing:
		return cyan(msg)
	case CategoryNetwork:
		return magenta(msg)
	case CategoryWallet:
		return bold(msg)
	default:
		return msg
	}
}

// DisableColors turns off ANSI colouring globally (non-TTY or JSON output).
func DisableColors() {
	color.NoColor = true
}
