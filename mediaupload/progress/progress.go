// Package progress turns the cumulative byte offset of an upload into a completion percentage.
package progress

import (
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// Percent returns the completion percentage of an upload in [0, 100].
//
// The result is floored, so it is 100 only once cumulative reaches total. An empty
// upload (total <= 0) is complete by definition.
func Percent(cumulative, total int64) int {
	if total <= 0 || cumulative >= total {
		return 100
	}
	if cumulative <= 0 {
		return 0
	}
	return int(cumulative * 100 / total)
}

// Event describes the state of an upload right after a part was acknowledged.
type Event struct {
	// Index of the acknowledged part.
	Index int
	// PartCount is the total number of parts of the upload.
	PartCount int
	// Offset is the cumulative number of acknowledged bytes.
	Offset  int64
	Total   int64
	Percent int
}

// NewEvent ...
func NewEvent(index, partCount int, offset, total int64) Event {
	return Event{
		Index:     index,
		PartCount: partCount,
		Offset:    offset,
		Total:     total,
		Percent:   Percent(offset, total),
	}
}

// Reporter observes upload progress.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(Event)

// Report ...
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// Nop discards every event.
var Nop Reporter = ReporterFunc(func(Event) {})

type logReporter struct {
	logger log.Logger
}

// NewLogReporter returns a Reporter printing one line per acknowledged part.
func NewLogReporter(logger log.Logger) Reporter {
	return logReporter{logger: logger}
}

func (r logReporter) Report(e Event) {
	r.logger.Printf("Part %d/%d acknowledged: %s of %s (%d%%)",
		e.Index+1, e.PartCount,
		units.HumanSizeWithPrecision(float64(e.Offset), 3),
		units.HumanSizeWithPrecision(float64(e.Total), 3),
		e.Percent)
}
