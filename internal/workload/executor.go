package workload

import (
	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/alphadose/ebstack"
)

const (
	// ExecutorAnts runs writers and readers on an ants goroutine pool
	ExecutorAnts = "ants"
	// ExecutorWorkerpool runs writers and readers on a gammazero workerpool
	ExecutorWorkerpool = "workerpool"
	// ExecutorPool runs writers and readers on an ebstack.Pool
	ExecutorPool = "ebstack"
)

// executor runs tasks concurrently; every submitted task must be able to run
// at the same time as all the others, since readers spin until writers finish
type executor interface {
	Submit(task func()) error
	Release()
}

func newExecutor(kind string, size int) (executor, error) {
	switch kind {
	case ExecutorAnts, "":
		p, err := ants.NewPool(size, ants.WithPreAlloc(true))
		if err != nil {
			return nil, errors.Wrap(err, "ants pool")
		}
		return antsExecutor{p}, nil
	case ExecutorWorkerpool:
		return workerpoolExecutor{workerpool.New(size)}, nil
	case ExecutorPool:
		p, err := ebstack.NewPool(size)
		if err != nil {
			return nil, errors.Wrap(err, "ebstack pool")
		}
		return p, nil
	}
	return nil, errors.Errorf("unknown executor %q", kind)
}

type antsExecutor struct {
	p *ants.Pool
}

func (e antsExecutor) Submit(task func()) error { return e.p.Submit(task) }

func (e antsExecutor) Release() { e.p.Release() }

type workerpoolExecutor struct {
	p *workerpool.WorkerPool
}

func (e workerpoolExecutor) Submit(task func()) error {
	e.p.Submit(task)
	return nil
}

func (e workerpoolExecutor) Release() { e.p.StopWait() }
