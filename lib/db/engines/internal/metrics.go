package internal

import (
	"fmt"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/VictoriaMetrics/metrics"
)

// Metrics are the process wide counters of one engine type. They are
// exported through the /metrics endpoint of the HTTP transport.
type Metrics struct {
	Writes      *metrics.Counter // applied writes
	StaleWrites *metrics.Counter // writes ignored because of a lower write index
	Expired     *metrics.Counter // values reclaimed after expiration
	Deleted     *metrics.Counter // keys removed physically
	Evictions   *metrics.Counter // keys dropped to respect a capacity limit
}

// NewMetrics returns the counters of engine
func NewMetrics(engine db.Implementation) *Metrics {
	counter := func(name string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`avlkv_db_%s_total{engine=%q}`, name, engine))
	}
	return &Metrics{
		Writes:      counter("writes"),
		StaleWrites: counter("stale_writes"),
		Expired:     counter("expired"),
		Deleted:     counter("deleted"),
		Evictions:   counter("evictions"),
	}
}

// Record counts the outcome of a Resolve call
func (m *Metrics) Record(action Action) {
	switch action {
	case ActionStore:
		m.Writes.Inc()
	case ActionDelete:
		m.Deleted.Inc()
	case ActionStale:
		m.StaleWrites.Inc()
	}
}
