package repository

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// The backend is inconsistent about field names and value spellings across endpoints. Every
// response is mapped onto one canonical shape here; nothing past this file reads wire shapes.

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(string(v)); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func optional(values ...flexString) *string {
	if v := firstNonEmpty(values...); v != "" {
		return &v
	}
	return nil
}

type rawUser struct {
	ID       flexString `json:"id"`
	UserID   flexString `json:"user_id"`
	Email    flexString `json:"email"`
	FullName flexString `json:"full_name"`
	Name     flexString `json:"name"`
	Username flexString `json:"username"`
}

func normalizeUser(raw rawUser) models.UserInfo {
	return models.UserInfo{
		ID:       firstNonEmpty(raw.ID, raw.UserID),
		Email:    firstNonEmpty(raw.Email),
		FullName: firstNonEmpty(raw.FullName, raw.Name, raw.Username),
	}
}

type rawEvent struct {
	ID          flexString `json:"id"`
	EventID     flexString `json:"event_id"`
	Title       flexString `json:"title"`
	Name        flexString `json:"name"`
	Description flexString `json:"description"`
	Kind        flexString `json:"kind"`
	Type        flexString `json:"type"`
	EventType   flexString `json:"event_type"`
	Start       flexString `json:"start"`
	StartTime   flexString `json:"start_time"`
	StartDate   flexString `json:"start_date"`
	End         flexString `json:"end"`
	EndTime     flexString `json:"end_time"`
	EndDate     flexString `json:"end_date"`
	DueDate     flexString `json:"due_date"`
	ProjectID   flexString `json:"project_id"`
	ProjectIDC  flexString `json:"projectId"`
	TaskID      flexString `json:"task_id"`
	TaskIDC     flexString `json:"taskId"`
}

func normalizeEvent(raw rawEvent) models.FetchedEvent {
	kind := normalizeKind(firstNonEmpty(raw.Kind, raw.Type, raw.EventType))
	return models.FetchedEvent{
		ID:          firstNonEmpty(raw.ID, raw.EventID),
		Title:       firstNonEmpty(raw.Title, raw.Name),
		Description: firstNonEmpty(raw.Description),
		Kind:        kind,
		Start:       optional(raw.Start, raw.StartTime, raw.StartDate),
		End:         optional(raw.End, raw.EndTime, raw.EndDate, raw.DueDate),
		ProjectID:   optional(raw.ProjectID, raw.ProjectIDC),
		TaskID:      optional(raw.TaskID, raw.TaskIDC),
	}
}

func normalizeKind(raw string) models.EventKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "meeting", "meet":
		return models.EventKindMeeting
	case "deadline", "due":
		return models.EventKindDeadline
	default:
		return models.EventKindNormal
	}
}

type rawMember struct {
	rawUser
	Role     flexString `json:"role"`
	UserRole flexString `json:"user_role"`
}

func normalizeMember(raw rawMember) models.ProjectMember {
	user := normalizeUser(raw.rawUser)
	return models.ProjectMember{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     normalizeRole(firstNonEmpty(raw.UserRole, raw.Role)),
	}
}

type rawProject struct {
	ID              flexString  `json:"id"`
	ProjectID       flexString  `json:"project_id"`
	Name            flexString  `json:"name"`
	ProjectName     flexString  `json:"project_name"`
	Title           flexString  `json:"title"`
	Description     flexString  `json:"description"`
	UserRole        flexString  `json:"user_role"`
	Role            flexString  `json:"role"`
	CurrentUserRole flexString  `json:"currentUserRole"`
	OwnerID         flexString  `json:"owner_id"`
	CreatedBy       flexString  `json:"created_by"`
	MemberCount     *int        `json:"member_count"`
	Members         []rawMember `json:"members"`
	CreatedAt       flexString  `json:"created_at"`
}

func normalizeProject(raw rawProject) models.Project {
	project := models.Project{
		ID:          firstNonEmpty(raw.ID, raw.ProjectID),
		Name:        firstNonEmpty(raw.Name, raw.ProjectName, raw.Title),
		Description: firstNonEmpty(raw.Description),
		Role:        normalizeRole(firstNonEmpty(raw.UserRole, raw.Role, raw.CurrentUserRole)),
		OwnerID:     firstNonEmpty(raw.OwnerID, raw.CreatedBy),
		MemberCount: len(raw.Members),
	}
	if raw.MemberCount != nil {
		project.MemberCount = *raw.MemberCount
	}
	if created := firstNonEmpty(raw.CreatedAt); created != "" {
		if instant, err := zonedtime.ParseInstant(created); err == nil {
			project.CreatedAt = &instant
		}
	}
	return project
}

func normalizeRole(raw string) models.ProjectRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "owner", "creator":
		return models.ProjectRoleOwner
	case "admin", "manager":
		return models.ProjectRoleAdmin
	case "viewer", "guest", "read-only", "readonly":
		return models.ProjectRoleViewer
	default:
		return models.ProjectRoleMember
	}
}

type rawTask struct {
	ID          flexString        `json:"id"`
	TaskID      flexString        `json:"task_id"`
	ProjectID   flexString        `json:"project_id"`
	ProjectIDC  flexString        `json:"projectId"`
	Title       flexString        `json:"title"`
	Name        flexString        `json:"name"`
	Description flexString        `json:"description"`
	Status      flexString        `json:"status"`
	TaskStatus  flexString        `json:"task_status"`
	AssigneeID  flexString        `json:"assignee_id"`
	AssignedTo  flexString        `json:"assigned_to"`
	DueDate     flexString        `json:"due_date"`
	Deadline    flexString        `json:"deadline"`
	Tags        []json.RawMessage `json:"tags"`
}

func normalizeTask(raw rawTask, conv *zonedtime.Converter) models.Task {
	task := models.Task{
		ID:          firstNonEmpty(raw.ID, raw.TaskID),
		ProjectID:   firstNonEmpty(raw.ProjectID, raw.ProjectIDC),
		Title:       firstNonEmpty(raw.Title, raw.Name),
		Description: firstNonEmpty(raw.Description),
		Status:      normalizeStatus(firstNonEmpty(raw.Status, raw.TaskStatus)),
		AssigneeID:  optional(raw.AssigneeID, raw.AssignedTo),
		DueDate:     normalizeDueDate(firstNonEmpty(raw.DueDate, raw.Deadline), conv),
		Tags:        make([]string, 0, len(raw.Tags)),
	}
	for _, tag := range raw.Tags {
		if name := tagName(tag); name != "" {
			task.Tags = append(task.Tags, name)
		}
	}
	return task
}

func normalizeStatus(raw string) models.TaskStatus {
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(raw))) {
	case "in_progress", "inprogress", "ongoing", "doing", "started":
		return models.TaskStatusInProgress
	case "done", "completed", "complete", "finished":
		return models.TaskStatusDone
	default:
		return models.TaskStatusTodo
	}
}

// normalizeDueDate reduces instants to the calendar-zone date; plain dates pass through.
func normalizeDueDate(raw string, conv *zonedtime.Converter) *string {
	if raw == "" {
		return nil
	}
	if w, err := zonedtime.ParseDate(raw); err == nil {
		date := zonedtime.FormatDate(w)
		return &date
	}
	if conv != nil {
		if instant, err := conv.Parse(raw); err == nil {
			date := zonedtime.FormatDate(conv.InstantToZoned(instant).Wall)
			return &date
		}
	}
	return nil
}

func tagName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return strings.TrimSpace(name)
	}
	var obj rawTag
	if err := json.Unmarshal(raw, &obj); err == nil {
		return normalizeTag(obj).Name
	}
	return ""
}

type rawTag struct {
	ID    flexString `json:"id"`
	Name  flexString `json:"name"`
	Label flexString `json:"label"`
	Color flexString `json:"color"`
}

func normalizeTag(raw rawTag) models.Tag {
	return models.Tag{
		ID:    firstNonEmpty(raw.ID),
		Name:  firstNonEmpty(raw.Name, raw.Label),
		Color: firstNonEmpty(raw.Color),
	}
}

type rawActivity struct {
	ID          flexString `json:"id"`
	ProjectID   flexString `json:"project_id"`
	Actor       flexString `json:"actor"`
	UserName    flexString `json:"user_name"`
	User        flexString `json:"user"`
	Action      flexString `json:"action"`
	Type        flexString `json:"type"`
	Subject     flexString `json:"subject"`
	Target      flexString `json:"target"`
	Description flexString `json:"description"`
	CreatedAt   flexString `json:"created_at"`
	Timestamp   flexString `json:"timestamp"`
}

func normalizeActivity(raw rawActivity, projectID string, conv *zonedtime.Converter) (models.TimelineEntry, bool) {
	occurred, err := conv.Parse(firstNonEmpty(raw.CreatedAt, raw.Timestamp))
	if err != nil {
		return models.TimelineEntry{}, false
	}
	entry := models.TimelineEntry{
		ID:         firstNonEmpty(raw.ID),
		ProjectID:  firstNonEmpty(raw.ProjectID),
		Actor:      firstNonEmpty(raw.Actor, raw.UserName, raw.User),
		Action:     strings.ToLower(firstNonEmpty(raw.Action, raw.Type)),
		Subject:    firstNonEmpty(raw.Subject, raw.Target, raw.Description),
		OccurredAt: occurred,
		LocalTime:  conv.InstantToInput(occurred),
	}
	if entry.ProjectID == "" {
		entry.ProjectID = projectID
	}
	return entry, true
}
