// Package api provides the REST client for the FlowHive backend.
// Types mirror the backend wire protocol.
package api

import "time"

// Role is a user's role within the system.
type Role string

const (
	RoleTeamMember Role = "team_member"
	RoleManager    Role = "manager"
	RoleExecutive  Role = "executive"
)

// WorkspaceKind distinguishes the two workspace categories. Each kind has
// its own landing route in the client.
type WorkspaceKind string

const (
	KindProjectManagement WorkspaceKind = "PROJECT_MANAGEMENT"
	KindFieldOperations   WorkspaceKind = "FIELD_OPERATIONS"
)

// User is the authenticated identity returned by /auth/me.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Workspace is a tenant scoping projects, tasks and field activities.
type Workspace struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Kind        WorkspaceKind `json:"workspace_type"`
	Icon        string        `json:"icon,omitempty"`
	Color       string        `json:"color,omitempty"`
	OwnerID     int           `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// WorkspaceMember is one member entry inside a WorkspaceDetail.
type WorkspaceMember struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// WorkspaceDetail is a workspace with its member list, returned by
// /workspaces/{id}.
type WorkspaceDetail struct {
	Workspace
	Members []WorkspaceMember `json:"members"`
}

// Credentials is the login request.
type Credentials struct {
	Username string
	Password string
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// AuthResponse is returned by /auth/login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
