package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flowdesk-backend/internal/automation/domain"
)

// AutomationRepository persists the engine's output. Diagnostic runs are
// idempotent, so writes upsert on the deterministic IDs instead of inserting.
type AutomationRepository interface {
	ReplaceApprovals(userID string, approvals []domain.ApprovalRequest) error
	ReplaceRisks(userID string, risks []domain.RiskAlert) error
	AppendHandled(userID string, actions []domain.HandledAction) error

	FindApprovals(userID string) ([]*domain.ApprovalRequest, error)
	FindApprovalByID(id string) (*domain.ApprovalRequest, error)
	DeleteApproval(id string) error

	FindRisks(userID string) ([]*domain.RiskAlert, error)
	FindRiskByID(id string) (*domain.RiskAlert, error)
	AcknowledgeRisk(id string) error

	FindHandled(userID string, limit int) ([]*domain.HandledAction, error)
}

type automationRepository struct {
	db *gorm.DB
}

func NewAutomationRepository(db *gorm.DB) AutomationRepository {
	return &automationRepository{db: db}
}

// ReplaceApprovals swaps the user's pending approvals for the latest
// diagnostic's set, keeping the original CreatedAt for ones that persist.
func (r *automationRepository) ReplaceApprovals(userID string, approvals []domain.ApprovalRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		keep := make([]string, 0, len(approvals))
		for _, a := range approvals {
			keep = append(keep, a.ID)
		}

		q := tx.Where("user_id = ?", userID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Delete(&domain.ApprovalRequest{}).Error; err != nil {
			return err
		}

		if len(approvals) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "message", "urgency", "data"}),
		}).Create(&approvals).Error
	})
}

// ReplaceRisks works like ReplaceApprovals but preserves acknowledgements
func (r *automationRepository) ReplaceRisks(userID string, risks []domain.RiskAlert) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		keep := make([]string, 0, len(risks))
		for _, risk := range risks {
			keep = append(keep, risk.ID)
		}

		q := tx.Where("user_id = ?", userID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Delete(&domain.RiskAlert{}).Error; err != nil {
			return err
		}

		if len(risks) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"severity", "title", "message"}),
		}).Create(&risks).Error
	})
}

// AppendHandled records auto-taken actions. Re-running a diagnostic must not
// duplicate them, so conflicts on the deterministic ID are ignored.
func (r *automationRepository) AppendHandled(userID string, actions []domain.HandledAction) error {
	if len(actions) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&actions).Error
}

func (r *automationRepository) FindApprovals(userID string) ([]*domain.ApprovalRequest, error) {
	var approvals []*domain.ApprovalRequest
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *automationRepository) FindApprovalByID(id string) (*domain.ApprovalRequest, error) {
	var approval domain.ApprovalRequest
	err := r.db.Where("id = ?", id).First(&approval).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}

func (r *automationRepository) DeleteApproval(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.ApprovalRequest{}).Error
}

func (r *automationRepository) FindRisks(userID string) ([]*domain.RiskAlert, error) {
	var risks []*domain.RiskAlert
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&risks).Error
	if err != nil {
		return nil, err
	}
	return risks, nil
}

func (r *automationRepository) FindRiskByID(id string) (*domain.RiskAlert, error) {
	var risk domain.RiskAlert
	err := r.db.Where("id = ?", id).First(&risk).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &risk, nil
}

func (r *automationRepository) AcknowledgeRisk(id string) error {
	return r.db.Model(&domain.RiskAlert{}).Where("id = ?", id).Update("acknowledged", true).Error
}

func (r *automationRepository) FindHandled(userID string, limit int) ([]*domain.HandledAction, error) {
	var actions []*domain.HandledAction
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
