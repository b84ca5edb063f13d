// Package connectivity tracks whether the backend is reachable and notifies
// interested components when that changes.
package connectivity

import "sync"

// Monitor reports current network reachability and emits change events.
//
// Online is a synchronous snapshot; Subscribe returns a channel that receives
// the new state on every transition. Channel sends are non-blocking: a
// subscriber that is not draining its channel misses intermediate
// transitions, never blocks the monitor.
type Monitor interface {
	Online() bool
	Subscribe() <-chan bool
}

// broadcaster fans state transitions out to subscribers.
type broadcaster struct {
	mu   sync.Mutex
	subs []chan bool
}

func (b *broadcaster) subscribe() <-chan bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan bool, 1)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster) notify(online bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
