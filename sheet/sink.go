package sheet

import (
	"context"
	"time"

	"voxsheet/log"
	"voxsheet/metrics"
)

// Record is one transcript to persist.
type Record struct {
	Time       time.Time
	Text       string
	Confidence float64
	Cell       Address
	Failed     bool
}

type Sink interface {
	Name() string
	Save(ctx context.Context, rec Record) error
}

// Router saves to Primary and falls back to Fallback when Primary is unset
// or fails. A primary failure is only logged.
type Router struct {
	Primary  Sink
	Fallback Sink
	Metrics  *metrics.Metrics
}

// Save returns the name of the sink that accepted the record.
func (r *Router) Save(ctx context.Context, rec Record) (string, error) {
	if r.Primary != nil {
		err := r.Primary.Save(ctx, rec)
		r.record(r.Primary.Name(), err)
		if err == nil {
			return r.Primary.Name(), nil
		}
		log.SinkFallback(rec.Cell.String(), r.Fallback.Name(), err)
	}
	err := r.Fallback.Save(ctx, rec)
	r.record(r.Fallback.Name(), err)
	return r.Fallback.Name(), err
}

func (r *Router) record(sink string, err error) {
	if r.Metrics != nil {
		r.Metrics.RecordSinkWrite(sink, err)
	}
}
