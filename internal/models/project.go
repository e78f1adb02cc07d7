package models

import "github.com/noah-isme/dunzo-api/pkg/zonedtime"

// ProjectRole is the caller's role within a project.
type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "owner"
	ProjectRoleAdmin  ProjectRole = "admin"
	ProjectRoleMember ProjectRole = "member"
	ProjectRoleViewer ProjectRole = "viewer"
)

// CanManage reports whether the role may edit project settings and membership.
func (r ProjectRole) CanManage() bool {
	return r == ProjectRoleOwner || r == ProjectRoleAdmin
}

// Project is the canonical project shape.
type Project struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Role        ProjectRole        `json:"role"`
	OwnerID     string             `json:"owner_id"`
	MemberCount int                `json:"member_count"`
	CreatedAt   *zonedtime.Instant `json:"created_at,omitempty"`
}

// ProjectMember is a user attached to a project.
type ProjectMember struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     ProjectRole `json:"role"`
}

// ProjectInput creates or updates a project.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// AddMemberInput invites a user by email.
type AddMemberInput struct {
	Email string      `json:"email" validate:"required,email"`
	Role  ProjectRole `json:"role" validate:"omitempty,oneof=admin member viewer"`
}

// TimelineEntry is one activity item on a project timeline.
type TimelineEntry struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Actor      string            `json:"actor"`
	Action     string            `json:"action"`
	Subject    string            `json:"subject"`
	OccurredAt zonedtime.Instant `json:"occurred_at"`
	LocalTime  string            `json:"local_time"`
}
