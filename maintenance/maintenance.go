// Package maintenance implements the sLS Maintenance Scheduler (spec
// §4.8): a single jittered tick drives lease-expiry pruning and
// subscription flush sweeps, with an optional distributed leader lock
// so only the instance holding it runs a tick's jobs.
package maintenance

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"sls/arithmetic"
	"sls/rand"
)

// DefaultMaxTick caps the LCM-computed base tick so a misconfigured or
// unusual combination of job intervals can't stretch the scheduler's
// tick out to something that starves every job.
const DefaultMaxTick = 5 * time.Minute

// Job is one unit of scheduled work. Returning an error only logs; it
// never stops the scheduler.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Leader arbitrates which scheduler instance in a federation may run
// jobs this tick. A nil Leader means every instance runs every job
// (single-node deployment).
type Leader interface {
	Acquire() (bool, error)
	Release() error
}

// Scheduler runs a set of Jobs on a single jittered base tick computed
// as the LCM of their intervals, coalescing any job whose interval has
// elapsed since the last tick ("missed-fire coalescing": a job that
// was due twice in one tick still runs once).
type Scheduler struct {
	jobs       []Job
	leader     Leader
	baseTick   time.Duration
	jitterFrac float64
	log        *logrus.Entry

	lastRun map[string]time.Time
}

// New builds a Scheduler. jitterFrac (e.g. 0.1) bounds how far a tick
// may drift early/late from the computed base tick, to desynchronize
// instances in a federation. maxTick caps the LCM-derived base tick;
// a non-positive value falls back to DefaultMaxTick.
func New(jobs []Job, leader Leader, jitterFrac float64, maxTick time.Duration, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if maxTick <= 0 {
		maxTick = DefaultMaxTick
	}
	return &Scheduler{
		jobs:       jobs,
		leader:     leader,
		baseTick:   computeBaseTick(jobs, maxTick),
		jitterFrac: jitterFrac,
		log:        log,
		lastRun:    make(map[string]time.Time, len(jobs)),
	}
}

func computeBaseTick(jobs []Job, maxTick time.Duration) time.Duration {
	if len(jobs) == 0 {
		return time.Second
	}
	msLcm := int(jobs[0].Interval.Milliseconds())
	if msLcm <= 0 {
		msLcm = 1000
	}
	for _, j := range jobs[1:] {
		ms := int(j.Interval.Milliseconds())
		if ms <= 0 {
			continue
		}
		msLcm = arithmetic.Lcm(msLcm, ms)
	}
	tick := time.Duration(msLcm) * time.Millisecond
	if maxTick > 0 && tick > maxTick {
		return maxTick
	}
	return tick
}

// Run blocks, firing jittered ticks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := s.jitteredTick()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) jitteredTick() time.Duration {
	if s.jitterFrac <= 0 || s.baseTick <= 0 {
		return s.baseTick
	}
	spread := int(float64(s.baseTick) * s.jitterFrac)
	if spread <= 0 {
		return s.baseTick
	}
	base := int(s.baseTick)
	jittered := rand.RandomIntBetweenInclusive(base-spread, base+spread, true, true)
	return time.Duration(jittered)
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.leader != nil {
		acquired, err := s.leader.Acquire()
		if err != nil {
			s.log.WithError(err).Warn("leader acquisition failed, skipping tick")
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := s.leader.Release(); err != nil {
				s.log.WithError(err).Warn("leader release failed")
			}
		}()
	}

	now := time.Now()
	for _, job := range s.jobs {
		due := s.lastRun[job.Name].IsZero() || now.Sub(s.lastRun[job.Name]) >= job.Interval
		if !due {
			continue
		}
		s.lastRun[job.Name] = now
		if err := job.Run(ctx); err != nil {
			s.log.WithError(err).WithField("job", job.Name).Error("maintenance job failed")
		}
	}
}
