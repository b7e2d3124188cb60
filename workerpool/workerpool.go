// Package workerpool is the bounded fan-out dispatcher spec §4.7 and
// §4.8 require: a fixed number of goroutines draining a buffered job
// queue, so the Subscription Manager's flush and the Replication
// Fanout's send run off the record write path instead of inline with
// Register/Renew/Delete.
package workerpool

import (
	"sync"

	"github.com/sirupsen/logrus"

	"sls/channel"
)

// Pool runs submitted jobs on a fixed number of goroutines draining a
// bounded queue.
type Pool struct {
	jobs chan func()
	log  *logrus.Entry

	wg       sync.WaitGroup
	closeOne sync.Once
}

// New starts size worker goroutines reading off a queue of depth
// queueDepth. A non-positive size defaults to 1, and a non-positive
// queueDepth defaults to size.
func New(size, queueDepth int, log *logrus.Entry) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueDepth <= 0 {
		queueDepth = size
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	p := &Pool{
		jobs: make(chan func(), queueDepth),
		log:  log,
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues fn for execution on the pool and returns immediately.
// If the queue is full, fn is dropped and logged rather than blocking
// the caller — the same drop-on-full precedent replication.Memory.Enqueue
// uses for its own bounded queue.
func (p *Pool) Submit(fn func()) {
	select {
	case p.jobs <- fn:
	default:
		p.log.Warn("workerpool: queue full, dropping job")
	}
}

// Close stops accepting new jobs and waits for in-flight and already-queued
// jobs to drain, or for stop to close, whichever happens first. The wait
// is expressed as channel.Or over the pool's own completion signal and the
// caller-supplied stop channel, so a caller can bound shutdown without the
// pool needing its own timeout policy.
func (p *Pool) Close(stop <-chan struct{}) {
	p.closeOne.Do(func() { close(p.jobs) })

	allDone := make(chan struct{})
	go func() {
		defer close(allDone)
		p.wg.Wait()
	}()

	<-channel.Or(allDone, stop)
}
