package output

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Structured mirrors log lines as zerolog events, one JSON object per line.
// Dividers carry no information and are skipped.
type Structured struct {
	logger zerolog.Logger
}

// NewStructured builds a JSON event writer tagged with the run id.
func NewStructured(w io.Writer, runID string) *Structured {
	l := zerolog.New(w).With().Timestamp().Str("run_id", runID).Logger()
	return &Structured{logger: l}
}

func (s *Structured) Handle(cat Category, msg string) {
	var ev *zerolog.Event
	switch cat {
	case CategoryDivider:
		return
	case CategoryError:
		ev = s.logger.Error()
	case CategoryWarning:
		ev = s.logger.Warn()
	default:
		ev = s.logger.Info()
	}
	ev.Str("category", cat.String()).Msg(strings.TrimSpace(msg))
}
