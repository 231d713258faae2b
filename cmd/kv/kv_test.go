package kv

import (
	"slices"
	"testing"
	"time"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/fifo"
	"github.com/ValentinKolb/avlkv/lib/store/lstore"
	"github.com/rcrowley/go-metrics"
)

func TestParseLifetimes(t *testing.T) {
	e, d, err := parseLifetimes("10", "0")
	if err != nil || e != 10 || d != 0 {
		t.Errorf("got %d, %d, %v", e, d, err)
	}
	if _, _, err := parseLifetimes("-1", "0"); err == nil {
		t.Error("expected error for negative expireIn")
	}
	if _, _, err := parseLifetimes("1", "x"); err == nil {
		t.Error("expected error for invalid deleteIn")
	}
}

func TestRunPerfCase(t *testing.T) {
	s := lstore.NewLocalStore(func() db.KVDB { return fifo.NewFIFODB(nil) })
	settings := perfSettings{Threads: 4, KeySpread: 8, Duration: 20 * time.Millisecond, Skip: []string{"has"}}
	registry := metrics.NewRegistry()

	for _, c := range perfCases(16) {
		r := runPerfCase(s, c, settings, registry)
		if c.name == "has" {
			if !r.Skipped {
				t.Error("has should be skipped")
			}
			continue
		}
		if r.Skipped || r.Errors != 0 || r.Timer.Count() == 0 || r.opsPerSec() <= 0 {
			t.Errorf("%s: unexpected result skipped=%v errors=%d ops=%d", c.name, r.Skipped, r.Errors, r.Timer.Count())
		}
	}

	// all benchmark keys are removed
	if keys, _ := s.Keys(); len(keys) != 0 {
		t.Errorf("left over keys %v", keys)
	}

	var names []string
	registry.Each(func(name string, _ interface{}) { names = append(names, name) })
	if !slices.Contains(names, "mixed") || !slices.Contains(names, "mixed.errors") {
		t.Errorf("metrics not registered: %v", names)
	}
}
