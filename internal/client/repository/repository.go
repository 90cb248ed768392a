package repository

import (
	"errors"
	"time"

	"flowdesk-backend/internal/client/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(client *domain.Client) error
	FindByID(id string) (*domain.Client, error)
	FindByUserID(userID string, status *domain.Status) ([]*domain.Client, error)
	Update(client *domain.Client) error
	Delete(id string) error
}

// gormClientRepository implements ClientRepository using GORM
type gormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GORM-based ClientRepository
func NewGormClientRepository(db *gorm.DB) ClientRepository {
	return &gormClientRepository{db: db}
}

func (r *gormClientRepository) Create(client *domain.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()
	return r.db.Create(client).Error
}

func (r *gormClientRepository) FindByID(id string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *gormClientRepository) FindByUserID(userID string, status *domain.Status) ([]*domain.Client, error) {
	var clients []*domain.Client
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at ASC").Find(&clients).Error
	return clients, err
}

func (r *gormClientRepository) Update(client *domain.Client) error {
	client.UpdatedAt = time.Now()
	return r.db.Save(client).Error
}

func (r *gormClientRepository) Delete(id string) error {
	return r.db.Delete(&domain.Client{}, "id = ?", id).Error
}
