package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/shooting"
	"github.com/sirupsen/logrus"
)

// runParallel fans the cases out over opts.Workers goroutines, each with
// its own solver. The result is identical to a sequential sweep; only the
// log order differs.
func runParallel(ctx context.Context, c physics.Constants, machs []float64, opts Options, log logrus.FieldLogger) (*Result, error) {
	start := time.Now()

	profiles := make([]*shooting.Profile, len(machs))
	failures := make([]*dynamo.CaseError, len(machs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(opts.Workers, len(machs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			solver := shooting.NewSolver(c, opts.Solver).WithLogger(log)
			for i := range jobs {
				profiles[i], failures[i] = solveCase(solver, shooting.Case{Index: i, Mach: machs[i]}, log)
			}
		}()
	}

	var stopErr error
	for i := range machs {
		if err := ctx.Err(); err != nil {
			stopErr = fmt.Errorf("sweep stopped before case %d: %w", i, err)
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			stopErr = fmt.Errorf("sweep stopped before case %d: %w", i, ctx.Err())
		}
		if stopErr != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	result := &Result{
		Constants: c,
		Machs:     append([]float64(nil), machs...),
		Profiles:  make(map[int]*shooting.Profile, len(machs)),
	}
	for i := range machs {
		if profiles[i] != nil {
			result.Profiles[i] = profiles[i]
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, failures[i])
		}
	}
	result.Elapsed = time.Since(start)

	if stopErr != nil {
		return result, stopErr
	}
	logFinished(log, result, result.Elapsed)
	return result, nil
}
