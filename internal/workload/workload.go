// Package workload drives a concurrent stack with writer and reader goroutines
// and checks that every value pushed is popped exactly once.
package workload

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrRetryCapExceeded means a single push kept failing past Config.RetryCap attempts
var ErrRetryCapExceeded = errors.New("workload: push retry cap exceeded")

// Stack is the part of a concurrent stack the workload uses
type Stack interface {
	Push(v int) error
	Pop() (int, bool)
	Empty() bool
}

// Config describes one run
type Config struct {
	Writers         int
	Readers         int
	ValuesPerWriter int
	// Executor is ExecutorAnts, ExecutorWorkerpool or ExecutorPool
	Executor string
	// RetryCap bounds the attempts of a single push
	RetryCap int
	// Seed makes the pushed values reproducible
	Seed uint64
}

// DefaultConfig returns 10 writers pushing 100000 values each and 10 readers
func DefaultConfig() Config {
	return Config{
		Writers:         10,
		Readers:         10,
		ValuesPerWriter: 100000,
		Executor:        ExecutorAnts,
		RetryCap:        1e8,
		Seed:            1,
	}
}

// Report summarizes a successful run
type Report struct {
	Written  uint64
	Read     uint64
	Distinct int
	Elapsed  time.Duration
}

// Run pushes cfg.Writers*cfg.ValuesPerWriter pseudo-random nonzero values while
// cfg.Readers goroutines drain s, then compares what was written with what was read.
func Run(ctx context.Context, s Stack, cfg Config) (Report, error) {
	if cfg.Writers <= 0 || cfg.Readers <= 0 || cfg.ValuesPerWriter < 0 {
		return Report{}, errors.Errorf("invalid config %+v", cfg)
	}
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = DefaultConfig().RetryCap
	}
	exec, err := newExecutor(cfg.Executor, cfg.Writers+cfg.Readers)
	if err != nil {
		return Report{}, err
	}
	defer exec.Release()

	var (
		writes   = make([]Histogram, cfg.Writers)
		reads    = make([]Histogram, cfg.Readers)
		errs     = make([]error, cfg.Writers)
		writing  atomic.Bool
		writerWG sync.WaitGroup
		readerWG sync.WaitGroup
		began    = time.Now()
	)
	writing.Store(true)

	for i := range writes {
		writes[i] = make(Histogram)
		writerWG.Add(1)
		if err := exec.Submit(func() {
			defer writerWG.Done()
			errs[i] = write(ctx, s, cfg, uint64(i), writes[i])
		}); err != nil {
			writerWG.Done()
			errs[i] = errors.Wrap(err, "submit writer")
		}
	}
	for i := range reads {
		reads[i] = make(Histogram)
		readerWG.Add(1)
		if err := exec.Submit(func() {
			defer readerWG.Done()
			read(ctx, s, &writing, reads[i])
		}); err != nil {
			readerWG.Done()
			writing.Store(false)
			writerWG.Wait()
			readerWG.Wait()
			return Report{}, errors.Wrap(err, "submit reader")
		}
	}

	writerWG.Wait()
	writing.Store(false)
	readerWG.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, errors.Wrap(err, "workload interrupted")
	}
	for _, err := range errs {
		if err != nil {
			return Report{}, err
		}
	}

	written, read := Merge(writes...), Merge(reads...)
	if err := Diff(written, read); err != nil {
		return Report{}, err
	}
	return Report{
		Written:  written.Total(),
		Read:     read.Total(),
		Distinct: len(read),
		Elapsed:  time.Since(began),
	}, nil
}

func write(ctx context.Context, s Stack, cfg Config, id uint64, h Histogram) error {
	rng := rand.New(rand.NewPCG(cfg.Seed, id))
	for j := 0; j < cfg.ValuesPerWriter; j++ {
		if ctx.Err() != nil {
			return nil
		}
		v := rng.Int()
		if v == 0 {
			continue
		}
		for attempt := 1; ; attempt++ {
			err := s.Push(v)
			if err == nil {
				break
			}
			if attempt >= cfg.RetryCap {
				return errors.Wrapf(ErrRetryCapExceeded, "writer %d after %d attempts: %v", id, attempt, err)
			}
			// a full arena drains as readers pop
			runtime.Gosched()
		}
		h[v]++
	}
	return nil
}

func read(ctx context.Context, s Stack, writing *atomic.Bool, h Histogram) {
	for ctx.Err() == nil && (writing.Load() || !s.Empty()) {
		if v, ok := s.Pop(); ok {
			h[v]++
		}
	}
}
