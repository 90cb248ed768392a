package repository

import (
	"gorm.io/gorm"

	"flowdesk-backend/internal/assistant/domain"
)

// RunRepository keeps the durable audit trail of assistant runs. The
// in-process ring is for diagnostics; this survives restarts.
type RunRepository interface {
	Save(run *domain.Run) error
	FindByUserID(userID string, limit int) ([]*domain.Run, error)
	DeleteOlderThan(userID string, keep int) error
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Save(run *domain.Run) error {
	return r.db.Create(run).Error
}

func (r *runRepository) FindByUserID(userID string, limit int) ([]*domain.Run, error) {
	var runs []*domain.Run
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteOlderThan trims a user's history down to the keep most recent runs
func (r *runRepository) DeleteOlderThan(userID string, keep int) error {
	sub := r.db.Model(&domain.Run{}).
		Select("id").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(keep)
	return r.db.Where("user_id = ? AND id NOT IN (?)", userID, sub).
		Delete(&domain.Run{}).Error
}
