package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type projectRepository interface {
	List(ctx context.Context, token string) ([]models.Project, error)
	Get(ctx context.Context, token, id string) (*models.Project, error)
	Create(ctx context.Context, token string, input models.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, token, id string, input models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, token, id string) error
	Members(ctx context.Context, token, projectID string) ([]models.ProjectMember, error)
	AddMember(ctx context.Context, token, projectID string, input models.AddMemberInput) error
	RemoveMember(ctx context.Context, token, projectID, userID string) error
	Timeline(ctx context.Context, token, projectID string) ([]models.TimelineEntry, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// ProjectService exposes project use cases. Management operations require an owner or admin
// role on the project; the backend re-checks them.
type ProjectService struct {
	repo      projectRepository
	validator structValidator
	audience  projectAudience
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(repo projectRepository, validate structValidator, dashboard dashboardInvalidator, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repo:      repo,
		validator: validate,
		audience:  projectAudience{members: repo, dashboard: dashboard, logger: logger},
		logger:    logger,
	}
}

// List returns the caller's projects.
func (s *ProjectService) List(ctx context.Context, auth *models.AuthContext) ([]models.Project, error) {
	return s.repo.List(ctx, auth.UpstreamToken())
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, auth *models.AuthContext, id string) (*models.Project, error) {
	return s.repo.Get(ctx, auth.UpstreamToken(), id)
}

// Create stores a project owned by the caller.
func (s *ProjectService) Create(ctx context.Context, auth *models.AuthContext, input models.ProjectInput) (*models.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	project, err := s.repo.Create(ctx, auth.UpstreamToken(), input)
	if err != nil {
		return nil, err
	}
	s.audience.touch(ctx, auth, "")
	return project, nil
}

// Update changes project fields.
func (s *ProjectService) Update(ctx context.Context, auth *models.AuthContext, id string, input models.ProjectInput) (*models.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, auth, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, auth.UpstreamToken(), id, input)
}

// Delete removes a project. Only owners may delete. Members are looked up first since the
// backend forgets them with the project.
func (s *ProjectService) Delete(ctx context.Context, auth *models.AuthContext, id string) error {
	project, err := s.repo.Get(ctx, auth.UpstreamToken(), id)
	if err != nil {
		return err
	}
	if project.Role != models.ProjectRoleOwner {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner can delete a project")
	}
	affected := s.audience.collect(ctx, auth, id)
	if err := s.repo.Delete(ctx, auth.UpstreamToken(), id); err != nil {
		return err
	}
	s.audience.invalidate(ctx, affected)
	return nil
}

// Members lists project members.
func (s *ProjectService) Members(ctx context.Context, auth *models.AuthContext, projectID string) ([]models.ProjectMember, error) {
	return s.repo.Members(ctx, auth.UpstreamToken(), projectID)
}

// AddMember invites a user; the role defaults to member.
func (s *ProjectService) AddMember(ctx context.Context, auth *models.AuthContext, projectID string, input models.AddMemberInput) error {
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if input.Role == "" {
		input.Role = models.ProjectRoleMember
	}
	if err := s.requireManager(ctx, auth, projectID); err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, auth.UpstreamToken(), projectID, input); err != nil {
		return err
	}
	s.audience.touch(ctx, auth, projectID)
	return nil
}

// RemoveMember detaches a user. Members may always remove themselves.
func (s *ProjectService) RemoveMember(ctx context.Context, auth *models.AuthContext, projectID, userID string) error {
	if userID != auth.UserID() {
		if err := s.requireManager(ctx, auth, projectID); err != nil {
			return err
		}
	}
	if err := s.repo.RemoveMember(ctx, auth.UpstreamToken(), projectID, userID); err != nil {
		return err
	}
	s.audience.touch(ctx, auth, projectID, userID)
	return nil
}

// Timeline returns project activity newest first.
func (s *ProjectService) Timeline(ctx context.Context, auth *models.AuthContext, projectID string) ([]models.TimelineEntry, error) {
	return s.repo.Timeline(ctx, auth.UpstreamToken(), projectID)
}

func (s *ProjectService) requireManager(ctx context.Context, auth *models.AuthContext, projectID string) error {
	project, err := s.repo.Get(ctx, auth.UpstreamToken(), projectID)
	if err != nil {
		return err
	}
	if !project.Role.CanManage() {
		return appErrors.Clone(appErrors.ErrForbidden, "project management requires owner or admin role")
	}
	return nil
}
