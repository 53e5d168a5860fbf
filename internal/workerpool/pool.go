// Package workerpool implements the two-tier worker pool of spec.md §4.5:
// a fixed number of long-lived "real" workers plus an elastic overflow
// tier spawned on demand, dispatched from a single pool mutex.
//
// This has no direct analogue in the teacher (infodancer-pop3d spawns one
// goroutine per accepted connection); it is built fresh from spec.md §4.5
// and §9's design note, which maps the original's condition-variable
// dispatch onto "a bounded channel of socket_fd messages... plus a
// spawn-on-demand branch for overflow".
package workerpool

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/lzulberti/robin/internal/metrics"
)

// elasticIdleGrace is how long a just-freed elastic worker waits for a
// new dispatch before exiting, per spec.md §4.5 priority rule 2 ("if an
// idle elastic worker already exists, it is woken").
const elasticIdleGrace = 50 * time.Millisecond

// Handler serves one accepted connection to completion.
type Handler func(conn net.Conn)

// realWorker is one of the R long-lived workers created at pool init.
type realWorker struct {
	ch   chan net.Conn
	idle bool
}

// Pool dispatches accepted connections to a bounded set of real workers
// and an elastic overflow tier, per spec.md §4.5.
type Pool struct {
	mu          sync.Mutex
	real        []*realWorker
	idleElastic []chan net.Conn

	handler   Handler
	logger    *slog.Logger
	collector metrics.Collector

	wg sync.WaitGroup
}

// New creates a Pool with r real workers, each running handler in a loop.
func New(r int, handler Handler, logger *slog.Logger, collector metrics.Collector) *Pool {
	p := &Pool{
		handler:   handler,
		logger:    logger,
		collector: collector,
	}

	p.real = make([]*realWorker, r)
	for i := range p.real {
		w := &realWorker{ch: make(chan net.Conn, 1), idle: true}
		p.real[i] = w
		p.wg.Add(1)
		go p.runReal(w)
	}

	return p
}

// Dispatch hands conn to a worker, per the priority order of spec.md
// §4.5: an idle real worker first, then an idle elastic worker, then a
// freshly spawned elastic worker.
func (p *Pool) Dispatch(conn net.Conn) {
	p.mu.Lock()

	for _, w := range p.real {
		if w.idle {
			w.idle = false
			p.mu.Unlock()
			w.ch <- conn
			return
		}
	}

	if n := len(p.idleElastic); n > 0 {
		ch := p.idleElastic[n-1]
		p.idleElastic = p.idleElastic[:n-1]
		p.mu.Unlock()
		p.collector.WorkerSpawned("elastic")
		ch <- conn
		return
	}

	p.mu.Unlock()

	p.collector.WorkerSpawned("elastic")
	go p.runElastic(conn)
}

func (p *Pool) runReal(w *realWorker) {
	defer p.wg.Done()
	for {
		conn, ok := <-w.ch
		if !ok {
			return
		}
		p.collector.WorkerSpawned("real")
		p.handler(conn)
		p.collector.WorkerRetired("real")

		p.mu.Lock()
		w.idle = true
		p.mu.Unlock()
	}
}

// runElastic serves conn and, once done, waits briefly for a fresh
// dispatch before exiting, absorbing the race where the acceptor
// dispatches again just as this worker is winding down.
func (p *Pool) runElastic(conn net.Conn) {
	ch := make(chan net.Conn, 1)

	for {
		p.handler(conn)
		p.collector.WorkerRetired("elastic")

		p.mu.Lock()
		p.idleElastic = append(p.idleElastic, ch)
		p.mu.Unlock()

		select {
		case next, ok := <-ch:
			if !ok {
				return
			}
			// Dispatch already counted this handoff via WorkerSpawned
			// before sending on ch.
			conn = next
			continue
		case <-time.After(elasticIdleGrace):
			if p.removeIdleElastic(ch) {
				return
			}
			// Dispatch claimed this worker between the timer firing and
			// our attempt to remove it from the idle list; a connection
			// is already in ch (or arriving immediately), and Dispatch
			// already counted the handoff.
			conn = <-ch
		}
	}
}

func (p *Pool) removeIdleElastic(ch chan net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.idleElastic {
		if c == ch {
			p.idleElastic = append(p.idleElastic[:i], p.idleElastic[i+1:]...)
			return true
		}
	}
	return false
}

// Close signals every real worker to exit after its current session (if
// any) and joins them. Elastic workers in flight drain naturally since
// the acceptor must stop dispatching before Close is called (spec.md
// §4.5's shutdown contract).
func (p *Pool) Close() {
	p.mu.Lock()
	for _, w := range p.real {
		close(w.ch)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
