// Package notify materializes user-facing notifications from realtime
// events and keeps a bounded history of the most recent ones.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddiemuhoro/flowhive/internal/realtime"
)

// maxNotifications bounds the history; the oldest entries are evicted.
const maxNotifications = 50

// Notification is one entry in the feed.
type Notification struct {
	ID        string
	Kind      realtime.EventKind
	Title     string
	Message   string
	CreatedAt time.Time
	Read      bool
}

// taskEvent is the payload shape shared by the task lifecycle events.
type taskEvent struct {
	Title string `json:"title"`
}

// commentEvent is the payload of comment_added.
type commentEvent struct {
	UserName string `json:"user_name"`
}

// Center holds the notification history, newest first.
type Center struct {
	mu       sync.Mutex
	items    []Notification
	listener func(Notification)
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{}
}

// Subscriber is the registration surface of the realtime layer. Both the
// connection manager and the bare dispatcher satisfy it.
type Subscriber interface {
	On(kind realtime.EventKind, h realtime.PayloadHandler)
}

// Subscribe registers the center's handlers for the five event kinds that
// produce notifications. Unrecognized kinds never reach the center but
// still reach any subscriber registered for them directly.
func (c *Center) Subscribe(m Subscriber) {
	m.On(realtime.EventTaskCreated, c.handleTaskCreated)
	m.On(realtime.EventTaskUpdated, c.handleTaskUpdated)
	m.On(realtime.EventTaskDeleted, c.handleTaskDeleted)
	m.On(realtime.EventCommentAdded, c.handleCommentAdded)
	m.On(realtime.EventTaskAssigned, c.handleTaskAssigned)
}

// SetListener registers a callback invoked for every new notification.
func (c *Center) SetListener(fn func(Notification)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Notifications returns a copy of the history, newest first.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread counts notifications not yet marked read.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification read. Unknown ids are ignored.
func (c *Center) MarkRead(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return
		}
	}
}

// MarkAllRead marks the whole history read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		c.items[i].Read = true
	}
}

// Clear empties the history.
func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

func (c *Center) handleTaskCreated(data json.RawMessage) {
	var ev taskEvent
	json.Unmarshal(data, &ev)
	c.add(realtime.EventTaskCreated, "New Task Created",
		fmt.Sprintf("%s has been created", ev.Title))
}

func (c *Center) handleTaskUpdated(data json.RawMessage) {
	var ev taskEvent
	json.Unmarshal(data, &ev)
	c.add(realtime.EventTaskUpdated, "Task Updated",
		fmt.Sprintf("%s has been updated", ev.Title))
}

func (c *Center) handleTaskDeleted(json.RawMessage) {
	c.add(realtime.EventTaskDeleted, "Task Deleted", "A task has been deleted")
}

func (c *Center) handleCommentAdded(data json.RawMessage) {
	var ev commentEvent
	json.Unmarshal(data, &ev)
	c.add(realtime.EventCommentAdded, "New Comment",
		fmt.Sprintf("%s commented on a task", ev.UserName))
}

func (c *Center) handleTaskAssigned(data json.RawMessage) {
	var ev taskEvent
	json.Unmarshal(data, &ev)
	c.add(realtime.EventTaskAssigned, "Task Assigned",
		fmt.Sprintf("You have been assigned to %s", ev.Title))
}

func (c *Center) add(kind realtime.EventKind, title, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.items = append([]Notification{n}, c.items...)
	if len(c.items) > maxNotifications {
		c.items = c.items[:maxNotifications]
	}
	fn := c.listener
	c.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}
