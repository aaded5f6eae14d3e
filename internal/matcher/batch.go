package matcher

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/vacancy-codes/internal/debug"
	"github.com/vacancy-codes/internal/match"
)

// BatchProcessor resolves a batch of raw strings on a pool of workers that
// share one read-only Matcher.
type BatchProcessor struct {
	matcher *match.Matcher
	workers int
}

// NewBatchProcessor creates a batch processor. workers <= 0 uses one worker per CPU.
func NewBatchProcessor(m *match.Matcher, workers int) *BatchProcessor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchProcessor{matcher: m, workers: workers}
}

// Resolve matches every raw string. Results are returned in input order,
// each tagged with its input index. If ctx is cancelled before every query
// is resolved the partial results are discarded and ctx's error returned.
func (bp *BatchProcessor) Resolve(ctx context.Context, localDebug bool, raws []string) ([]match.Result, *match.BatchStats, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	startTime := time.Now()
	results := make([]match.Result, len(raws))

	workers := bp.workers
	if workers > len(raws) {
		workers = len(raws)
	}
	debug.DebugOutput(localDebug, "Resolving %d %s queries on %d workers", len(raws), bp.matcher.Kind(), workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := bp.matcher.Match(raws[i])
				res.QueryIndex = i
				results[i] = res
			}
		}()
	}

	var interrupted error
feed:
	for i := range raws {
		select {
		case <-ctx.Done():
			interrupted = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if interrupted != nil {
		return nil, nil, fmt.Errorf("%s batch interrupted: %w", bp.matcher.Kind(), interrupted)
	}

	stats := &match.BatchStats{
		Kind:  bp.matcher.Kind(),
		Total: len(raws),
	}
	var totalScore float64
	for _, res := range results {
		if res.Accepted {
			stats.Accepted++
			totalScore += res.Score
		} else {
			stats.Unmatched++
		}
	}
	if stats.Accepted > 0 {
		stats.AverageScore = totalScore / float64(stats.Accepted)
	}
	stats.ProcessingTime = time.Since(startTime)

	debug.DebugOutput(localDebug, "Batch complete: %d accepted (%.1f%%), %d unmatched, average score %.4f, took %v",
		stats.Accepted, stats.MatchRate(), stats.Unmatched, stats.AverageScore, stats.ProcessingTime)

	return results, stats, nil
}
