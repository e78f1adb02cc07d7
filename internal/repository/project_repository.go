package repository

import (
	"context"
	"net/http"
	"sort"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/pkg/zonedtime"
)

// ProjectRepository reads and writes projects, memberships and timelines on the backend.
type ProjectRepository struct {
	client upstreamClient
	conv   *zonedtime.Converter
}

// NewProjectRepository constructs a project repository.
func NewProjectRepository(client upstreamClient, conv *zonedtime.Converter) *ProjectRepository {
	return &ProjectRepository{client: client, conv: conv}
}

type projectListResponse struct {
	Projects []rawProject `json:"projects"`
	Data     []rawProject `json:"data"`
}

type projectResponse struct {
	Project *rawProject `json:"project"`
	Data    *rawProject `json:"data"`
}

type memberListResponse struct {
	Members []rawMember `json:"members"`
	Data    []rawMember `json:"data"`
}

type timelineResponse struct {
	Timeline   []rawActivity `json:"timeline"`
	Activities []rawActivity `json:"activities"`
	Data       []rawActivity `json:"data"`
}

// List returns the caller's projects.
func (r *ProjectRepository) List(ctx context.Context, token string) ([]models.Project, error) {
	var out projectListResponse
	if err := r.client.Do(ctx, http.MethodGet, "/projects", token, nil, nil, &out); err != nil {
		return nil, err
	}
	raws := pick(out.Projects, out.Data)
	projects := make([]models.Project, 0, len(raws))
	for _, raw := range raws {
		projects = append(projects, normalizeProject(raw))
	}
	return projects, nil
}

// Get returns one project.
func (r *ProjectRepository) Get(ctx context.Context, token, id string) (*models.Project, error) {
	var out projectResponse
	if err := r.client.Do(ctx, http.MethodGet, pathOf("projects", id), token, nil, nil, &out); err != nil {
		return nil, err
	}
	return r.single(out, id), nil
}

// Create stores a new project.
func (r *ProjectRepository) Create(ctx context.Context, token string, input models.ProjectInput) (*models.Project, error) {
	var out projectResponse
	if err := r.client.Do(ctx, http.MethodPost, "/projects", token, nil, input, &out); err != nil {
		return nil, err
	}
	project := r.single(out, "")
	if project.Name == "" {
		project.Name = input.Name
		project.Description = input.Description
		project.Role = models.ProjectRoleOwner
	}
	return project, nil
}

// Update changes project fields.
func (r *ProjectRepository) Update(ctx context.Context, token, id string, input models.ProjectInput) (*models.Project, error) {
	var out projectResponse
	if err := r.client.Do(ctx, http.MethodPut, pathOf("projects", id), token, nil, input, &out); err != nil {
		return nil, err
	}
	project := r.single(out, id)
	if project.Name == "" {
		project.Name = input.Name
		project.Description = input.Description
	}
	return project, nil
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, token, id string) error {
	return r.client.Do(ctx, http.MethodDelete, pathOf("projects", id), token, nil, nil, nil)
}

// Members lists project members.
func (r *ProjectRepository) Members(ctx context.Context, token, projectID string) ([]models.ProjectMember, error) {
	var out memberListResponse
	if err := r.client.Do(ctx, http.MethodGet, pathOf("projects", projectID, "members"), token, nil, nil, &out); err != nil {
		return nil, err
	}
	raws := pick(out.Members, out.Data)
	members := make([]models.ProjectMember, 0, len(raws))
	for _, raw := range raws {
		members = append(members, normalizeMember(raw))
	}
	return members, nil
}

// AddMember invites a user to a project.
func (r *ProjectRepository) AddMember(ctx context.Context, token, projectID string, input models.AddMemberInput) error {
	return r.client.Do(ctx, http.MethodPost, pathOf("projects", projectID, "members"), token, nil, input, nil)
}

// RemoveMember detaches a user from a project.
func (r *ProjectRepository) RemoveMember(ctx context.Context, token, projectID, userID string) error {
	return r.client.Do(ctx, http.MethodDelete, pathOf("projects", projectID, "members", userID), token, nil, nil, nil)
}

// Timeline returns project activity newest first. Items without a parseable timestamp are skipped.
func (r *ProjectRepository) Timeline(ctx context.Context, token, projectID string) ([]models.TimelineEntry, error) {
	var out timelineResponse
	if err := r.client.Do(ctx, http.MethodGet, pathOf("projects", projectID, "timeline"), token, nil, nil, &out); err != nil {
		return nil, err
	}
	raws := pick(out.Timeline, out.Activities, out.Data)
	entries := make([]models.TimelineEntry, 0, len(raws))
	for _, raw := range raws {
		if entry, ok := normalizeActivity(raw, projectID, r.conv); ok {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt.Time)
	})
	return entries, nil
}

func (r *ProjectRepository) single(out projectResponse, fallbackID string) *models.Project {
	project := models.Project{ID: fallbackID}
	if raw := pickOne(out.Project, out.Data); raw != nil {
		project = normalizeProject(*raw)
		if project.ID == "" {
			project.ID = fallbackID
		}
	}
	return &project
}
