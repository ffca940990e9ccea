package auth

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type SessionEventType string

const (
	SessionEventLogin  SessionEventType = "login"
	SessionEventLogout SessionEventType = "logout"
)

type SessionEvent struct {
	Type   SessionEventType `json:"type"`
	UserID int              `json:"userId"`
	At     time.Time        `json:"at"`
}

const subscriberBufferSize = 16

// Notifier is the process-wide session event stream. Components interested
// in auth state changes subscribe on setup and unsubscribe on teardown,
// they never poll the session store.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan SessionEvent
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan SessionEvent),
	}
}

// Subscribe registers a listener for session events. The returned id is
// used to unsubscribe. The channel is closed on Unsubscribe.
func (n *Notifier) Subscribe() (int, <-chan SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan SessionEvent, subscriberBufferSize)
	n.subs[id] = ch
	return id, ch
}

func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subs[id]
	if !ok {
		return
	}
	delete(n.subs, id)
	close(ch)
}

// Publish delivers the event to all subscribers without blocking.
// Slow subscribers with a full buffer lose the event and a warning is logged.
func (n *Notifier) Publish(event SessionEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subs {
		select {
		case ch <- event:
		default:
			log.Warnf("session notifier: subscriber %d buffer full, event %s dropped", id, event.Type)
		}
	}
}
