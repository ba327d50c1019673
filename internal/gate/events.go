package gate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"phishgate/internal/verdict"
)

// Event describes one gate decision for live observers (the websocket
// stream). It is a flattened, display-oriented view of a Decision.
type Event struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	URL      string         `json:"url"`
	Host     string         `json:"host"`
	Action   Action         `json:"action"`
	Result   verdict.Result `json:"result,omitempty"`
	Source   verdict.Source `json:"source,omitempty"`
	CacheHit bool           `json:"cache_hit"`
}

// broadcaster fans decision events out to subscribers. Sends are
// non-blocking: a slow consumer drops events rather than stalling the
// gating path.
type broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[string]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	id := uuid.New().String()

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *broadcaster) send(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a decision-event observer. The returned cancel
// function must be called to release the subscription.
func (g *Gate) Subscribe() (<-chan Event, func()) {
	return g.events.subscribe()
}

func (g *Gate) publish(url, host string, d Decision) {
	ev := Event{
		ID:       uuid.New().String(),
		Time:     time.Now().UTC(),
		URL:      url,
		Host:     host,
		Action:   d.Action,
		CacheHit: d.CacheHit,
	}
	if d.Entry != nil {
		ev.Result = d.Entry.Result
		ev.Source = d.Entry.Source
	}
	g.events.send(ev)
}
