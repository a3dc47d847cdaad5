package cmd

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/viant/hotelsearch/search"
)

// BenchSummary reports a bench run.
type BenchSummary struct {
	Runs        int           `json:"runs"`
	Concurrency int           `json:"concurrency"`
	Results     int           `json:"results"`
	Total       time.Duration `json:"total_ns"`
	P50         time.Duration `json:"p50_ns"`
	P95         time.Duration `json:"p95_ns"`
	Max         time.Duration `json:"max_ns"`
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		runs        int
		concurrency int
		perSecond   float64
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run many independent searches concurrently and check their brands never collide",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Bench
			if cmd.Flags().Changed("runs") {
				cfg.Runs = runs
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate") {
				cfg.Rate = perSecond
			}
			searchCfg, err := a.cfg.Search.Config()
			if err != nil {
				return err
			}
			summary, err := runBench(cmd.Context(), searchCfg, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 100, "Number of search runs")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Maximum concurrent runs")
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "Maximum runs started per second (0 = unlimited)")
	return cmd
}

func runBench(ctx context.Context, searchCfg search.Config, cfg BenchConfig) (*BenchSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Runs < 0 || cfg.Concurrency < 0 || cfg.Rate < 0 {
		return nil, fmt.Errorf("bench: runs, concurrency and rate must be >= 0")
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		mu        sync.Mutex
		brands    = make(map[search.Brand]int, cfg.Runs)
		latencies = make([]time.Duration, 0, cfg.Runs)
		results   int
	)
	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < cfg.Runs; i++ {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			t0 := time.Now()
			resp, err := search.RunWithBrand(search.NewBrand(), searchCfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(t0)

			mu.Lock()
			defer mu.Unlock()
			latencies = append(latencies, elapsed)
			results += len(resp.Points)
			if len(resp.Points) == 0 {
				return nil
			}
			brand := resp.Points[0].Brand
			for _, p := range resp.Points {
				if p.Brand != brand {
					return fmt.Errorf("bench: run %d mixes brands %s and %s", i, brand, p.Brand)
				}
			}
			if prev, ok := brands[brand]; ok {
				return fmt.Errorf("bench: runs %d and %d share brand %s", prev, i, brand)
			}
			brands[brand] = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &BenchSummary{
		Runs:        len(latencies),
		Concurrency: concurrency,
		Results:     results,
		Total:       time.Since(started),
	}
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		summary.P50 = percentile(latencies, 0.50)
		summary.P95 = percentile(latencies, 0.95)
		summary.Max = latencies[len(latencies)-1]
	}
	logrus.Infof("bench: %d runs in %s (p50 %s, p95 %s)", summary.Runs, summary.Total, summary.P50, summary.P95)
	return summary, nil
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(q*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}
