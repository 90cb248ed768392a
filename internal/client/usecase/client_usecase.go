package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"flowdesk-backend/internal/client/domain"
	"flowdesk-backend/internal/client/repository"

	"github.com/google/uuid"
)

// SpendSummer derives a client's total spent from linked projects.
// The project feature provides an adapter.
type SpendSummer interface {
	SumPriceByClientID(userID, clientID string) (float64, error)
}

// NoteIndexer mirrors client notes into the semantic index that backs
// assistant answers. Satisfied by chroma.NoteIndex; best-effort only.
type NoteIndexer interface {
	UpsertNote(ctx context.Context, userID, entityType, entityID, title, body string) error
	DeleteNote(ctx context.Context, entityID string) error
}

// ClientUsecase defines the interface for client business logic
type ClientUsecase interface {
	CreateClient(userID string, req ClientCreateRequest) (*domain.Client, error)
	GetClientByID(userID, clientID string) (*domain.Client, error)
	GetUserClients(userID string, status *string) ([]*domain.Client, error)
	UpdateClient(userID, clientID string, updates ClientUpdateRequest) (*domain.Client, error)
	DeleteClient(userID, clientID string) error
	GetTotalSpent(userID, clientID string) (float64, error)
	TouchLastContact(userID, clientID string) (*domain.Client, error)
	SetSpendSummer(summer SpendSummer)
	SetNoteIndexer(notes NoteIndexer)
}

// ClientCreateRequest carries the fields for a new client
type ClientCreateRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email"`
	Status        string  `json:"status"`
	LastContactAt *string `json:"last_contact_at"` // RFC3339
	Notes         string  `json:"notes"`
}

// ClientUpdateRequest represents the fields that can be updated
type ClientUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Status        *string `json:"status,omitempty"`
	LastContactAt *string `json:"last_contact_at,omitempty"` // RFC3339, empty clears
	Notes         *string `json:"notes,omitempty"`
}

// clientUsecase implements ClientUsecase interface
type clientUsecase struct {
	clientRepo  repository.ClientRepository
	spendSummer SpendSummer
	noteIndex   NoteIndexer
}

// NewClientUsecase creates a new instance of clientUsecase
func NewClientUsecase(clientRepo repository.ClientRepository) ClientUsecase {
	return &clientUsecase{
		clientRepo: clientRepo,
	}
}

func (u *clientUsecase) SetSpendSummer(summer SpendSummer) {
	u.spendSummer = summer
}

func (u *clientUsecase) SetNoteIndexer(notes NoteIndexer) {
	u.noteIndex = notes
}

func (u *clientUsecase) indexNote(c *domain.Client) {
	if u.noteIndex == nil {
		return
	}
	if err := u.noteIndex.UpsertNote(context.Background(), c.UserID, "client", c.ID, c.Name, c.Notes); err != nil {
		log.Printf("[Client] Note indexing failed for %s: %v", c.ID, err)
	}
}

func (u *clientUsecase) dropNote(clientID string) {
	if u.noteIndex == nil {
		return
	}
	if err := u.noteIndex.DeleteNote(context.Background(), clientID); err != nil {
		log.Printf("[Client] Note removal failed for %s: %v", clientID, err)
	}
}

func (u *clientUsecase) CreateClient(userID string, req ClientCreateRequest) (*domain.Client, error) {
	client := &domain.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   req.Name,
		Email:  req.Email,
		Status: parseStatus(req.Status),
		Notes:  req.Notes,
	}

	if req.LastContactAt != nil && *req.LastContactAt != "" {
		if t, err := time.Parse(time.RFC3339, *req.LastContactAt); err == nil {
			client.LastContactAt = &t
		}
	}

	if err := u.clientRepo.Create(client); err != nil {
		return nil, err
	}
	u.indexNote(client)

	return client, nil
}

func (u *clientUsecase) GetClientByID(userID, clientID string) (*domain.Client, error) {
	client, err := u.clientRepo.FindByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("client not found")
	}
	if client.UserID != userID {
		return nil, errors.New("unauthorized")
	}
	return client, nil
}

func (u *clientUsecase) GetUserClients(userID string, status *string) ([]*domain.Client, error) {
	var statusFilter *domain.Status
	if status != nil && *status != "" {
		s := domain.Status(*status)
		statusFilter = &s
	}
	return u.clientRepo.FindByUserID(userID, statusFilter)
}

func (u *clientUsecase) UpdateClient(userID, clientID string, updates ClientUpdateRequest) (*domain.Client, error) {
	client, err := u.GetClientByID(userID, clientID)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		client.Name = *updates.Name
	}
	if updates.Email != nil {
		client.Email = *updates.Email
	}
	if updates.Status != nil {
		client.Status = parseStatus(*updates.Status)
	}
	if updates.LastContactAt != nil {
		if *updates.LastContactAt == "" {
			client.LastContactAt = nil
		} else if t, err := time.Parse(time.RFC3339, *updates.LastContactAt); err == nil {
			client.LastContactAt = &t
		}
	}
	if updates.Notes != nil {
		client.Notes = *updates.Notes
	}

	client.UpdatedAt = time.Now()
	if err := u.clientRepo.Update(client); err != nil {
		return nil, err
	}
	u.indexNote(client)

	return client, nil
}

func (u *clientUsecase) DeleteClient(userID, clientID string) error {
	client, err := u.GetClientByID(userID, clientID)
	if err != nil {
		return err
	}
	if err := u.clientRepo.Delete(client.ID); err != nil {
		return err
	}
	u.dropNote(client.ID)
	return nil
}

func (u *clientUsecase) GetTotalSpent(userID, clientID string) (float64, error) {
	if _, err := u.GetClientByID(userID, clientID); err != nil {
		return 0, err
	}
	if u.spendSummer == nil {
		return 0, nil
	}
	return u.spendSummer.SumPriceByClientID(userID, clientID)
}

// TouchLastContact stamps "now" on the communication history, used when
// the user records a follow-up or an automation follow-up is approved
func (u *clientUsecase) TouchLastContact(userID, clientID string) (*domain.Client, error) {
	client, err := u.GetClientByID(userID, clientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	client.LastContactAt = &now
	client.UpdatedAt = now
	if err := u.clientRepo.Update(client); err != nil {
		return nil, err
	}

	return client, nil
}

func parseStatus(s string) domain.Status {
	if domain.Status(s) == domain.StatusInactive {
		return domain.StatusInactive
	}
	return domain.StatusActive
}
