// Package realtime maintains the WebSocket channel to the active
// workspace: one connection at a time, linear-backoff reconnection, and
// typed subscriber dispatch for inbound frames.
package realtime

import "encoding/json"

// EventKind identifies the kind of realtime frame.
type EventKind string

const (
	EventTaskCreated  EventKind = "task_created"
	EventTaskUpdated  EventKind = "task_updated"
	EventTaskDeleted  EventKind = "task_deleted"
	EventCommentAdded EventKind = "comment_added"
	EventTaskAssigned EventKind = "task_assigned"
)

// Frame is the envelope for all inbound and outbound realtime messages.
type Frame struct {
	Type        EventKind       `json:"type"`
	WorkspaceID int             `json:"workspace_id,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}
