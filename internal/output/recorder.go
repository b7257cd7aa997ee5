package output

import (
	"strings"
	"sync"
)

// Entry is one captured log line.
type Entry struct {
	Category Category
	Message  string
}

// Recorder keeps every line in memory. Tests use it to assert on phases.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Handle(cat Category, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Category: cat, Message: msg})
}

// Entries returns a copy of the captured lines.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many lines of the category contain substr.
func (r *Recorder) Count(cat Category, substr string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Category == cat && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}
