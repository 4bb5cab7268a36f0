package live

import (
	"sync"

	"github.com/ashureev/consolebot/internal/chat"
)

// outbox buffers frames for the connection writer. Only the newest state
// is kept since every state frame carries the whole conversation; events
// are delivered in order.
type outbox struct {
	mu     sync.Mutex
	state  *chat.Snapshot
	events []serverFrame
	signal chan struct{}
}

func newOutbox() *outbox {
	return &outbox{signal: make(chan struct{}, 1)}
}

func (o *outbox) pushState(s chat.Snapshot) {
	o.mu.Lock()
	o.state = &s
	o.mu.Unlock()
	o.notify()
}

func (o *outbox) pushEvent(f serverFrame) {
	o.mu.Lock()
	o.events = append(o.events, f)
	o.mu.Unlock()
	o.notify()
}

func (o *outbox) notify() {
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// drain returns pending events followed by the latest state, if any.
func (o *outbox) drain() []serverFrame {
	o.mu.Lock()
	defer o.mu.Unlock()

	frames := o.events
	o.events = nil
	if o.state != nil {
		frames = append(frames, serverFrame{Type: frameState, Snapshot: o.state})
		o.state = nil
	}
	return frames
}
