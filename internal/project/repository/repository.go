package repository

import (
	"errors"
	"time"

	"flowdesk-backend/internal/project/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(project *domain.Project) error
	FindByID(id string) (*domain.Project, error)
	FindByUserID(userID string, status *domain.Status) ([]*domain.Project, error)
	FindByClientID(userID, clientID string) ([]*domain.Project, error)
	SumPriceByClientID(userID, clientID string) (float64, error)
	Update(project *domain.Project) error
	Delete(id string) error
}

// gormProjectRepository implements ProjectRepository using GORM
type gormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GORM-based ProjectRepository
func NewGormProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) Create(project *domain.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	return r.db.Create(project).Error
}

func (r *gormProjectRepository) FindByID(id string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *gormProjectRepository) FindByUserID(userID string, status *domain.Status) ([]*domain.Project, error) {
	var projects []*domain.Project
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at ASC").Find(&projects).Error
	return projects, err
}

func (r *gormProjectRepository) FindByClientID(userID, clientID string) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.db.Where("user_id = ? AND client_id = ?", userID, clientID).
		Order("created_at ASC").Find(&projects).Error
	return projects, err
}

// SumPriceByClientID derives a client's total spent. Never stored.
func (r *gormProjectRepository) SumPriceByClientID(userID, clientID string) (float64, error) {
	var total float64
	err := r.db.Model(&domain.Project{}).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		Select("COALESCE(SUM(price), 0)").Scan(&total).Error
	return total, err
}

func (r *gormProjectRepository) Update(project *domain.Project) error {
	project.UpdatedAt = time.Now()
	return r.db.Save(project).Error
}

func (r *gormProjectRepository) Delete(id string) error {
	return r.db.Delete(&domain.Project{}, "id = ?", id).Error
}
