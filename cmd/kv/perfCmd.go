package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/avlkv/cmd/util"
	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for avlkv servers",
		Long:    "Runs every benchmark for --duration with --threads concurrent clients and prints latency percentiles and throughput.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix = "__perf"
	perfConfig    = perfSettings{}
)

type perfSettings struct {
	Threads          int
	LargeValueSizeKB int
	KeySpread        int
	Duration         time.Duration
	Skip             []string
}

// perfCase is one benchmark. setup runs once before the timed op calls.
type perfCase struct {
	name  string
	setup func(s store.IStore, keys []string) error
	op    func(s store.IStore, key string, i int) error
}

// perfResult is the outcome of one perfCase
type perfResult struct {
	Name    string
	Skipped bool
	Errors  int64
	Elapsed time.Duration
	Timer   metrics.Timer
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent clients"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "key-spread"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "duration"
	perfTestCmd.Flags().Duration(key, 3*time.Second, util.WrapString("How long each benchmark runs"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfConfig = perfSettings{
		Threads:          max(viper.GetInt("threads"), 1),
		LargeValueSizeKB: viper.GetInt("large-value-size"),
		KeySpread:        max(viper.GetInt("key-spread"), 1),
		Duration:         viper.GetDuration("duration"),
	}
	for _, s := range strings.Split(viper.GetString("skip"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			perfConfig.Skip = append(perfConfig.Skip, s)
		}
	}
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for avlkv servers")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Duration: %s, Keys: %d\n\n", perfConfig.Threads, perfConfig.Duration, perfConfig.KeySpread)

	registry := metrics.NewRegistry()
	var results []perfResult
	for _, c := range perfCases(perfConfig.LargeValueSizeKB * 1024) {
		result := runPerfCase(rpcStore, c, perfConfig, registry)
		printPerfResult(result)
		results = append(results, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func setAll(s store.IStore, keys []string) error {
	for _, k := range keys {
		if err := s.Set(k, []byte("test")); err != nil {
			return err
		}
	}
	return nil
}

func perfCases(largeValueSize int) []perfCase {
	largeValue := make([]byte, largeValueSize)

	return []perfCase{
		{name: "set", op: func(s store.IStore, key string, _ int) error {
			return s.Set(key, []byte("test"))
		}},
		{name: "set-large", op: func(s store.IStore, key string, _ int) error {
			return s.Set(key, largeValue)
		}},
		{name: "setE", op: func(s store.IStore, key string, _ int) error {
			return s.SetE(key, []byte("test"), 60, 120)
		}},
		{name: "get", setup: setAll, op: func(s store.IStore, key string, _ int) error {
			_, _, err := s.Get(key)
			return err
		}},
		{name: "has", setup: setAll, op: func(s store.IStore, key string, _ int) error {
			_, err := s.Has(key)
			return err
		}},
		{name: "has-not", op: func(s store.IStore, key string, _ int) error {
			_, err := s.Has(key + "-missing")
			return err
		}},
		{name: "delete", setup: setAll, op: func(s store.IStore, key string, _ int) error {
			return s.Delete(key)
		}},
		{name: "count", setup: setAll, op: func(s store.IStore, _ string, _ int) error {
			_, err := s.Count()
			return err
		}},
		{name: "mixed", setup: setAll, op: func(s store.IStore, key string, i int) error {
			var err error
			switch i % 4 {
			case 0:
				err = s.Set(key, []byte("test"))
			case 1:
				_, _, err = s.Get(key)
			case 2:
				err = s.Delete(key)
			case 3:
				_, err = s.Has(key)
			}
			return err
		}},
	}
}

// runPerfCase runs c with settings.Threads goroutines until
// settings.Duration has passed and deletes its keys afterward
func runPerfCase(s store.IStore, c perfCase, settings perfSettings, registry metrics.Registry) perfResult {
	result := perfResult{Name: c.name}
	if slices.Contains(settings.Skip, c.name) {
		result.Skipped = true
		return result
	}

	keys := make([]string, settings.KeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, c.name, i)
	}
	defer func() {
		for _, k := range keys {
			_ = s.Delete(k)
		}
	}()

	if c.setup != nil {
		if err := c.setup(s, keys); err != nil {
			fmt.Printf("(%s) setup failed: %v\n", c.name, err)
		}
	}

	timer := metrics.GetOrRegisterTimer(c.name, registry)
	errors := metrics.GetOrRegisterCounter(c.name+".errors", registry)

	start := time.Now()
	deadline := start.Add(settings.Duration)
	var wg sync.WaitGroup
	for thread := range settings.Threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := thread; time.Now().Before(deadline); i += settings.Threads {
				opStart := time.Now()
				if err := c.op(s, keys[i%len(keys)], i); err != nil {
					errors.Inc(1)
					continue
				}
				timer.UpdateSince(opStart)
			}
		}()
	}
	wg.Wait()

	result.Elapsed = time.Since(start)
	result.Errors = errors.Count()
	result.Timer = timer
	return result
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

// opsPerSec is the number of successful operations per second
func (r perfResult) opsPerSec() float64 {
	if r.Skipped || r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Timer.Count()) / r.Elapsed.Seconds()
}

func printPerfResult(r perfResult) {
	if r.Skipped {
		fmt.Printf("%-12sskipped\n", r.Name)
		return
	}
	snap := r.Timer.Snapshot()
	p := snap.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-12s%8d ops  %10.0f ops/sec  mean %-10s p50 %-10s p99 %-10s errors %d\n",
		r.Name, snap.Count(), r.opsPerSec(),
		time.Duration(snap.Mean()), time.Duration(p[0]), time.Duration(p[1]), r.Errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	config := util.GetClientConfig()
	header := []string{
		"Test", "Skipped", "Ops", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P99Ns",
		"Endpoints", "TimeoutSec", "RetryCount", "ShardID", "Serializer",
		"Threads", "LargeValueSizeKB", "KeySpread",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		var ops int64
		var mean, p50, p99 float64
		if !r.Skipped {
			snap := r.Timer.Snapshot()
			p := snap.Percentiles([]float64{0.5, 0.99})
			ops, mean, p50, p99 = snap.Count(), snap.Mean(), p[0], p[1]
		}

		row := []string{
			r.Name,
			strconv.FormatBool(r.Skipped),
			strconv.FormatInt(ops, 10),
			strconv.FormatInt(r.Errors, 10),
			fmt.Sprintf("%.0f", r.opsPerSec()),
			fmt.Sprintf("%.0f", mean),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p99),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			strconv.Itoa(perfConfig.Threads),
			strconv.Itoa(perfConfig.LargeValueSizeKB),
			strconv.Itoa(perfConfig.KeySpread),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", r.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
