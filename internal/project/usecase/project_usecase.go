package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"flowdesk-backend/internal/project/domain"
	"flowdesk-backend/internal/project/repository"

	"github.com/google/uuid"
)

// TaskStats reports linked-task completion for progress recompute.
// The task feature provides an adapter so the packages stay decoupled.
type TaskStats interface {
	CountByProject(userID, projectID string) (total, done int, err error)
}

// NoteIndexer mirrors entity notes into the semantic index that backs
// assistant answers. Satisfied by chroma.NoteIndex. Indexing is
// best-effort: failures are logged and never fail the write.
type NoteIndexer interface {
	UpsertNote(ctx context.Context, userID, entityType, entityID, title, body string) error
	DeleteNote(ctx context.Context, entityID string) error
}

// ProjectUsecase defines the interface for project business logic
type ProjectUsecase interface {
	CreateProject(userID string, req ProjectCreateRequest) (*domain.Project, error)
	GetProjectByID(userID, projectID string) (*domain.Project, error)
	GetUserProjects(userID string, status *string) ([]*domain.Project, error)
	UpdateProject(userID, projectID string, updates ProjectUpdateRequest) (*domain.Project, error)
	DeleteProject(userID, projectID string) error

	// RecomputeProgress refreshes progress from linked-task completion.
	// Called by the task feature whenever linkage or completion changes.
	RecomputeProgress(userID, projectID string)

	// SetTaskStats wires the task-side completion counter
	SetTaskStats(stats TaskStats)

	// SetNoteIndexer wires the optional semantic note index
	SetNoteIndexer(notes NoteIndexer)
}

// ProjectCreateRequest carries the fields for a new project
type ProjectCreateRequest struct {
	Title            string  `json:"title" binding:"required"`
	ClientID         string  `json:"client_id"`
	ClientName       string  `json:"client_name"`
	Status           string  `json:"status"`
	Price            float64 `json:"price"`
	Progress         int     `json:"progress"`
	Deadline         *string `json:"deadline"` // RFC3339
	Tags             string  `json:"tags"`
	Color            string  `json:"color"`
	Notes            string  `json:"notes"`
	RevisionsAllowed int     `json:"revisions_allowed"`
}

// ProjectUpdateRequest represents the fields that can be updated
type ProjectUpdateRequest struct {
	Title            *string  `json:"title,omitempty"`
	ClientID         *string  `json:"client_id,omitempty"`
	ClientName       *string  `json:"client_name,omitempty"`
	Status           *string  `json:"status,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	Progress         *int     `json:"progress,omitempty"`
	Deadline         *string  `json:"deadline,omitempty"` // RFC3339, empty clears
	Tags             *string  `json:"tags,omitempty"`
	Color            *string  `json:"color,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	InvoiceStatus    *string  `json:"invoice_status,omitempty"`
	RevisionsUsed    *int     `json:"revisions_used,omitempty"`
	RevisionsAllowed *int     `json:"revisions_allowed,omitempty"`
}

// projectUsecase implements ProjectUsecase interface
type projectUsecase struct {
	projectRepo repository.ProjectRepository
	taskStats   TaskStats
	noteIndex   NoteIndexer
}

// NewProjectUsecase creates a new instance of projectUsecase
func NewProjectUsecase(projectRepo repository.ProjectRepository) ProjectUsecase {
	return &projectUsecase{
		projectRepo: projectRepo,
	}
}

func (u *projectUsecase) SetTaskStats(stats TaskStats) {
	u.taskStats = stats
}

func (u *projectUsecase) SetNoteIndexer(notes NoteIndexer) {
	u.noteIndex = notes
}

func (u *projectUsecase) indexNote(p *domain.Project) {
	if u.noteIndex == nil {
		return
	}
	if err := u.noteIndex.UpsertNote(context.Background(), p.UserID, "project", p.ID, p.Title, p.Notes); err != nil {
		log.Printf("[Project] Note indexing failed for %s: %v", p.ID, err)
	}
}

func (u *projectUsecase) dropNote(projectID string) {
	if u.noteIndex == nil {
		return
	}
	if err := u.noteIndex.DeleteNote(context.Background(), projectID); err != nil {
		log.Printf("[Project] Note removal failed for %s: %v", projectID, err)
	}
}

func (u *projectUsecase) CreateProject(userID string, req ProjectCreateRequest) (*domain.Project, error) {
	if req.Price < 0 {
		return nil, errors.New("price must not be negative")
	}

	project := &domain.Project{
		ID:               uuid.New().String(),
		UserID:           userID,
		Title:            req.Title,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		Status:           parseStatus(req.Status),
		Price:            req.Price,
		Progress:         clampProgress(req.Progress),
		Tags:             req.Tags,
		Color:            req.Color,
		Notes:            req.Notes,
		InvoiceStatus:    domain.InvoiceNone,
		RevisionsAllowed: req.RevisionsAllowed,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if req.Deadline != nil && *req.Deadline != "" {
		if t, err := time.Parse(time.RFC3339, *req.Deadline); err == nil {
			project.Deadline = &t
		}
	}

	if err := u.projectRepo.Create(project); err != nil {
		return nil, err
	}
	u.indexNote(project)

	return project, nil
}

func (u *projectUsecase) GetProjectByID(userID, projectID string) (*domain.Project, error) {
	project, err := u.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New("project not found")
	}
	if project.UserID != userID {
		return nil, errors.New("unauthorized")
	}
	return project, nil
}

func (u *projectUsecase) GetUserProjects(userID string, status *string) ([]*domain.Project, error) {
	var statusFilter *domain.Status
	if status != nil && *status != "" {
		s := domain.Status(*status)
		statusFilter = &s
	}
	return u.projectRepo.FindByUserID(userID, statusFilter)
}

func (u *projectUsecase) UpdateProject(userID, projectID string, updates ProjectUpdateRequest) (*domain.Project, error) {
	project, err := u.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		project.Title = *updates.Title
	}
	if updates.ClientID != nil {
		project.ClientID = *updates.ClientID
	}
	if updates.ClientName != nil {
		project.ClientName = *updates.ClientName
	}
	if updates.Status != nil {
		project.Status = parseStatus(*updates.Status)
	}
	if updates.Price != nil {
		if *updates.Price < 0 {
			return nil, errors.New("price must not be negative")
		}
		project.Price = *updates.Price
	}
	if updates.Progress != nil {
		// Manual progress only sticks when no tasks are linked
		if !u.hasLinkedTasks(userID, projectID) {
			project.Progress = clampProgress(*updates.Progress)
		}
	}
	if updates.Deadline != nil {
		if *updates.Deadline == "" {
			project.Deadline = nil
		} else if t, err := time.Parse(time.RFC3339, *updates.Deadline); err == nil {
			project.Deadline = &t
		}
	}
	if updates.Tags != nil {
		project.Tags = *updates.Tags
	}
	if updates.Color != nil {
		project.Color = *updates.Color
	}
	if updates.Notes != nil {
		project.Notes = *updates.Notes
	}
	if updates.InvoiceStatus != nil {
		project.InvoiceStatus = domain.InvoiceStatus(*updates.InvoiceStatus)
	}
	if updates.RevisionsUsed != nil {
		project.RevisionsUsed = *updates.RevisionsUsed
	}
	if updates.RevisionsAllowed != nil {
		project.RevisionsAllowed = *updates.RevisionsAllowed
	}

	project.UpdatedAt = time.Now()
	if err := u.projectRepo.Update(project); err != nil {
		return nil, err
	}
	u.indexNote(project)

	return project, nil
}

func (u *projectUsecase) DeleteProject(userID, projectID string) error {
	project, err := u.GetProjectByID(userID, projectID)
	if err != nil {
		return err
	}
	if err := u.projectRepo.Delete(project.ID); err != nil {
		return err
	}
	u.dropNote(project.ID)
	return nil
}

func (u *projectUsecase) RecomputeProgress(userID, projectID string) {
	if u.taskStats == nil {
		return
	}

	project, err := u.GetProjectByID(userID, projectID)
	if err != nil {
		return
	}

	total, done, err := u.taskStats.CountByProject(userID, projectID)
	if err != nil || total == 0 {
		return
	}

	project.Progress = clampProgress(done * 100 / total)
	project.UpdatedAt = time.Now()
	_ = u.projectRepo.Update(project)
}

func (u *projectUsecase) hasLinkedTasks(userID, projectID string) bool {
	if u.taskStats == nil {
		return false
	}
	total, _, err := u.taskStats.CountByProject(userID, projectID)
	return err == nil && total > 0
}

func parseStatus(s string) domain.Status {
	switch domain.Status(s) {
	case domain.StatusActive, domain.StatusPaused, domain.StatusRevision, domain.StatusCompleted, domain.StatusArchived:
		return domain.Status(s)
	default:
		return domain.StatusIntake
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
