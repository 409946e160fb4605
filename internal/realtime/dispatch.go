package realtime

import (
	"encoding/json"
	"log"
	"reflect"
	"sync"
)

// PayloadHandler receives the data payload of frames matching the kind it
// was registered for.
type PayloadHandler func(data json.RawMessage)

// FrameHandler receives every inbound frame, envelope included. Used by
// wildcard subscribers.
type FrameHandler func(frame Frame)

type payloadEntry struct {
	key uintptr
	fn  PayloadHandler
}

type frameEntry struct {
	key uintptr
	fn  FrameHandler
}

// Dispatcher routes inbound frames to registered handlers. Typed handlers
// are keyed by event kind; wildcard handlers live in a separate list and
// are notified for every frame. Handlers run in registration order.
type Dispatcher struct {
	mu       sync.Mutex
	typed    map[EventKind][]payloadEntry
	wildcard []frameEntry
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{typed: make(map[EventKind][]payloadEntry)}
}

// On registers a handler for one event kind. Registering the same function
// twice for the same kind is a no-op; identity is the function pointer, so
// distinct closures are distinct handlers.
func (d *Dispatcher) On(kind EventKind, h PayloadHandler) {
	if h == nil {
		return
	}
	key := reflect.ValueOf(h).Pointer()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.typed[kind] {
		if e.key == key {
			return
		}
	}
	d.typed[kind] = append(d.typed[kind], payloadEntry{key: key, fn: h})
}

// Off removes a previously registered handler. Removing a handler that is
// not registered is a no-op.
func (d *Dispatcher) Off(kind EventKind, h PayloadHandler) {
	if h == nil {
		return
	}
	key := reflect.ValueOf(h).Pointer()
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := d.typed[kind]
	for i, e := range entries {
		if e.key == key {
			d.typed[kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// OnAny registers a wildcard handler invoked for every frame with the full
// envelope. Duplicate registration is a no-op.
func (d *Dispatcher) OnAny(h FrameHandler) {
	if h == nil {
		return
	}
	key := reflect.ValueOf(h).Pointer()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.wildcard {
		if e.key == key {
			return
		}
	}
	d.wildcard = append(d.wildcard, frameEntry{key: key, fn: h})
}

// OffAny removes a wildcard handler.
func (d *Dispatcher) OffAny(h FrameHandler) {
	if h == nil {
		return
	}
	key := reflect.ValueOf(h).Pointer()
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.wildcard {
		if e.key == key {
			d.wildcard = append(d.wildcard[:i:i], d.wildcard[i+1:]...)
			return
		}
	}
}

// Dispatch invokes all handlers registered for the frame's kind, then all
// wildcard handlers. A panicking handler is logged and does not prevent
// the remaining handlers from running.
func (d *Dispatcher) Dispatch(f Frame) {
	d.mu.Lock()
	typed := make([]payloadEntry, len(d.typed[f.Type]))
	copy(typed, d.typed[f.Type])
	wildcard := make([]frameEntry, len(d.wildcard))
	copy(wildcard, d.wildcard)
	d.mu.Unlock()

	for _, e := range typed {
		invokePayload(e.fn, f)
	}
	for _, e := range wildcard {
		invokeFrame(e.fn, f)
	}
}

// Clear removes all registered handlers.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.typed = make(map[EventKind][]payloadEntry)
	d.wildcard = nil
	d.mu.Unlock()
}

func invokePayload(fn PayloadHandler, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime: handler for %q panicked: %v", f.Type, r)
		}
	}()
	fn(f.Data)
}

func invokeFrame(fn FrameHandler, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime: wildcard handler panicked: %v", r)
		}
	}()
	fn(f)
}
