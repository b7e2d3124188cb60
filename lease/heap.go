package lease

import (
	"container/heap"
	"time"
)

// leaseItem is one entry in the expiry-ordered heap.
type leaseItem struct {
	uri       string
	expiresAt time.Time
	index     int
}

// leaseHeap is a min-heap by expiresAt, giving O(log n) discovery of
// the next lease to expire (spec §4.2).
type leaseHeap []*leaseItem

func (h leaseHeap) Len() int { return len(h) }
func (h leaseHeap) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}
func (h leaseHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *leaseHeap) Push(x any) {
	item := x.(*leaseItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *leaseHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*leaseHeap)(nil)
