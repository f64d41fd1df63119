package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mediaforge/mediaforge/internal/queue"
)

// Pool runs a fixed set of workers per queue, sized by each queue's
// policy, plus a janitor that releases jobs whose worker died mid-run.
type Pool struct {
	workers       []*Worker
	queues        *queue.Manager
	stalledAfter  time.Duration
	janitorPeriod time.Duration
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewPool(deps Deps, policies map[string]queue.Policy, stalledAfter time.Duration) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queues:        deps.Queues,
		stalledAfter:  stalledAfter,
		janitorPeriod: 30 * time.Second,
		ctx:           ctx,
		cancel:        cancel,
	}

	for name, policy := range policies {
		for i := 1; i <= policy.Concurrency; i++ {
			id := fmt.Sprintf("%s-%d", name, i)
			p.workers = append(p.workers, NewWorker(id, name, deps))
		}
	}
	return p
}

func (p *Pool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()
}

func (p *Pool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.janitorPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			released, err := p.queues.RecoverStalled(p.ctx, p.stalledAfter)
			if err != nil {
				log.Printf("janitor: recover stalled: %v", err)
				continue
			}
			for _, j := range released {
				log.Printf("janitor: released stalled job %s (queue %s, worker %s)", j.ID, j.Queue, j.LockedBy)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}
