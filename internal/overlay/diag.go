package overlay

import (
	"context"
	"log/slog"
)

// DiagKind classifies an import anomaly.
type DiagKind string

const (
	DiagCoerced         DiagKind = "coerced"          // field had the wrong type and was converted
	DiagMissingRequired DiagKind = "missing_required" // required field absent, default used
	DiagUnexpectedKind  DiagKind = "unexpected_kind"  // unknown node type, subtree dropped
	DiagUnexpectedChild DiagKind = "unexpected_child" // par child that is neither text nor audio
	DiagUnresolvedText  DiagKind = "unresolved_text"  // text leaf matches no spine item
	DiagNormalized      DiagKind = "normalized"       // clip value clamped or reset
	DiagTooDeep         DiagKind = "too_deep"         // subtree beyond the depth limit, dropped
)

// Diagnostic is a structured observation emitted while importing. None of
// them abort the import.
type Diagnostic struct {
	Kind   DiagKind
	Level  slog.Level
	Path   string // e.g. "seq[0]/par[3]/audio[1]"
	Detail string
}

// Sink receives import diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

type discard struct{}

func (discard) Report(Diagnostic) {}

// SlogSink logs each diagnostic through log at the diagnostic's level.
func SlogSink(log *slog.Logger) Sink {
	return SinkFunc(func(d Diagnostic) {
		log.Log(context.Background(), d.Level, "smil import",
			"kind", string(d.Kind),
			"path", d.Path,
			"detail", d.Detail,
		)
	})
}

// Collector accumulates diagnostics in memory.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Count returns how many collected diagnostics have the given kind.
func (c *Collector) Count(kind DiagKind) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Tee forwards every diagnostic to all sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			s.Report(d)
		}
	})
}
