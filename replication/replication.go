// Package replication propagates record state across a cache
// federation (spec §1), adapted from the StateReplicator pattern:
// local mutations are sent to a configured transport as they happen
// (Fanout), and the Maintenance Scheduler periodically drains that
// transport and applies what it finds to the live Store.
package replication

import (
	"regexp"
	"time"

	"sls/record"
)

// Op enumerates the kinds of change a replicated Update carries.
type Op int

const (
	OpRegister Op = iota
	OpRenew
	OpDelete
)

// Update is one record mutation queued for replication to peer caches.
type Update struct {
	Op     Op
	Record record.Record
}

// Ack reports the outcome of sending one Update.
type Ack struct {
	ReplicationID string
	Err           error
}

// Replicator is the cross-cache propagation contract. GetUpdates
// drains the updates that reached the transport since the last call;
// SendUpdates pushes locally produced updates into this cache's
// replication transport and returns one Ack per update, in order.
type Replicator interface {
	GetUpdates() []Update
	SendUpdates(updates []Update) []Ack
	ReplicationIDPattern() *regexp.Regexp
}

// entryIDPattern matches Redis stream entry IDs ("<ms>-<seq>"), the
// replication ID shape used when a Redis-backed Replicator is wired.
var entryIDPattern = regexp.MustCompile(`^\d{13}-\d+$`)

// Memory is an in-process Replicator for tests and single-node
// deployments: it has no peers, so SendUpdates echoes updates onto a
// local queue and GetUpdates drains that queue.
type Memory struct {
	updates chan Update
	timeout time.Duration
}

func NewMemory(queueDepth int, drainTimeout time.Duration) *Memory {
	if drainTimeout <= 0 {
		drainTimeout = 50 * time.Millisecond
	}
	return &Memory{updates: make(chan Update, queueDepth), timeout: drainTimeout}
}

// Enqueue queues an update produced by a local registration/edit.
// Non-blocking: when the queue is full, u is dropped rather than
// stalling the caller.
func (m *Memory) Enqueue(u Update) {
	select {
	case m.updates <- u:
	default:
	}
}

func (m *Memory) GetUpdates() []Update {
	var out []Update
	deadline := time.After(m.timeout)
	for {
		select {
		case u := <-m.updates:
			out = append(out, u)
		case <-deadline:
			return out
		}
	}
}

func (m *Memory) SendUpdates(updates []Update) []Ack {
	acks := make([]Ack, len(updates))
	for i, u := range updates {
		m.Enqueue(u)
		acks[i] = Ack{ReplicationID: "local"}
	}
	return acks
}

func (m *Memory) ReplicationIDPattern() *regexp.Regexp { return entryIDPattern }

var _ Replicator = (*Memory)(nil)
