package session

import (
	"sort"
	"sync"
	"time"
)

// PendingAck tracks one application frame awaiting acknowledgement.
type PendingAck struct {
	Seq     uint64
	Service string
	Kind    string
	Size    int
	SentAt  time.Time
}

// pendingAcks stores pending acknowledgements by sequence id. It is
// accounting only; nothing waits on it.
type pendingAcks struct {
	mu    sync.Mutex
	items map[uint64]PendingAck
}

func newPendingAcks() *pendingAcks {
	return &pendingAcks{items: make(map[uint64]PendingAck)}
}

func (p *pendingAcks) add(item PendingAck) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[item.Seq] = item
}

func (p *pendingAcks) remove(seq uint64) (PendingAck, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.items[seq]
	if ok {
		delete(p.items, seq)
	}
	return item, ok
}

func (p *pendingAcks) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *pendingAcks) list() []PendingAck {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingAck, 0, len(p.items))
	for _, item := range p.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}

// clear drops every entry and returns how many there were.
func (p *pendingAcks) clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.items)
	p.items = make(map[uint64]PendingAck)
	return n
}
