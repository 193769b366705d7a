package rtasm

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// eventLit is one scripted input event in an event-fixture YAML file: an
// offset from the fixture's start instant (so fixtures stay readable and
// reproducible) and the value delivered to one input flow.
type eventLit struct {
	Flow   string `yaml:"flow"`
	Value  any    `yaml:"value"`
	Offset string `yaml:"offset"` // e.g. "0s", "150ms", "2s500ms"
}

type eventFile struct {
	Events []eventLit `yaml:"events"`
}

// LoadEvents reads a YAML-scripted event fixture and returns its events
// as InputEvents, sorted ascending by instant — the precondition
// RunLoop's merge against the timer queue assumes.
func LoadEvents(path string, start time.Time) ([]InputEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtasm: read event fixture %s: %w", path, err)
	}

	var f eventFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("rtasm: parse event fixture %s: %w", path, err)
	}

	events := make([]InputEvent, 0, len(f.Events))
	for _, e := range f.Events {
		offset, err := time.ParseDuration(e.Offset)
		if err != nil {
			return nil, fmt.Errorf("rtasm: event fixture %s: flow %q: parse offset %q: %w", path, e.Flow, e.Offset, err)
		}
		events = append(events, InputEvent{
			Flow:    e.Flow,
			Value:   normalizeScalar(e.Value),
			Instant: start.Add(offset),
			Trace:   ulid.Make().String(),
		})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Instant.Before(events[j].Instant) })

	return events, nil
}

// normalizeScalar coerces yaml.v3's default decode of a bare integer
// literal (Go int) to the int64 representation used everywhere else in
// this repository's runtime values.
func normalizeScalar(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}
