package usecase

import (
	"errors"
	"time"

	"flowdesk-backend/internal/task/domain"
	"flowdesk-backend/internal/task/repository"

	"github.com/google/uuid"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo          repository.TaskRepository
	onLinkageChanged  func(userID, projectID string)
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository) TaskUsecase {
	return &taskUsecase{
		taskRepo: taskRepo,
	}
}

func (u *taskUsecase) SetLinkageListener(fn func(userID, projectID string)) {
	u.onLinkageChanged = fn
}

func (u *taskUsecase) CreateTask(userID string, req TaskCreateRequest) (*domain.Task, error) {
	task := &domain.Task{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           req.Title,
		Category:        parseCategory(req.Category),
		DurationMinutes: req.DurationMinutes,
		Color:           req.Color,
		ReminderMinutes: req.ReminderMinutes,
		BoardStatus:     domain.BoardStatus(req.BoardStatus),
		Priority:        parsePriority(req.Priority),
		ProjectID:       req.ProjectID,
		Assignee:        req.Assignee,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if req.Start != "" {
		if t, err := time.Parse(time.RFC3339, req.Start); err == nil {
			task.Start = t
		}
	}

	u.scheduleReminder(task)

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}

	u.notifyLinkage(userID, task.ProjectID)
	return task, nil
}

func (u *taskUsecase) GetTaskByID(userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errors.New("task not found")
	}
	if task.UserID != userID {
		return nil, errors.New("unauthorized")
	}
	return task, nil
}

func (u *taskUsecase) GetUserTasks(userID string, boardStatus *string, limit, offset int) ([]*domain.Task, int64, error) {
	var statusFilter *domain.BoardStatus
	if boardStatus != nil && *boardStatus != "" {
		s := domain.BoardStatus(*boardStatus)
		statusFilter = &s
	}
	return u.taskRepo.FindByUserID(userID, statusFilter, limit, offset)
}

func (u *taskUsecase) UpdateTask(userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	// Remember the previous linkage so both projects get recomputed on a move
	prevProjectID := task.ProjectID
	prevDone := task.Done

	if updates.Title != nil {
		task.Title = *updates.Title
	}
	if updates.Done != nil {
		task.Done = *updates.Done
	}
	if updates.Category != nil {
		task.Category = parseCategory(*updates.Category)
	}
	if updates.Start != nil {
		if *updates.Start == "" {
			task.Start = time.Time{}
		} else if t, err := time.Parse(time.RFC3339, *updates.Start); err == nil {
			task.Start = t
			task.ReminderSent = false // Reset reminder status when time changes
		}
	}
	if updates.DurationMinutes != nil {
		task.DurationMinutes = *updates.DurationMinutes
	}
	if updates.Color != nil {
		task.Color = *updates.Color
	}
	if updates.ReminderMinutes != nil {
		task.ReminderMinutes = *updates.ReminderMinutes
		task.ReminderSent = false
	}
	if updates.BoardStatus != nil {
		task.BoardStatus = domain.BoardStatus(*updates.BoardStatus)
		if task.BoardStatus == domain.BoardDone {
			task.Done = true
		}
	}
	if updates.Priority != nil {
		task.Priority = parsePriority(*updates.Priority)
	}
	if updates.ProjectID != nil {
		task.ProjectID = *updates.ProjectID
	}
	if updates.Assignee != nil {
		task.Assignee = *updates.Assignee
	}

	u.scheduleReminder(task)

	task.UpdatedAt = time.Now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	if task.ProjectID != prevProjectID {
		u.notifyLinkage(userID, prevProjectID)
		u.notifyLinkage(userID, task.ProjectID)
	} else if task.Done != prevDone {
		u.notifyLinkage(userID, task.ProjectID)
	}

	return task, nil
}

func (u *taskUsecase) ToggleDone(userID, taskID string) (*domain.Task, error) {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Done = !task.Done
	if task.Done {
		task.BoardStatus = domain.BoardDone
	}
	task.UpdatedAt = time.Now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	u.notifyLinkage(userID, task.ProjectID)
	return task, nil
}

func (u *taskUsecase) DeleteTask(userID, taskID string) error {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return err
	}
	if err := u.taskRepo.Delete(task.ID); err != nil {
		return err
	}
	u.notifyLinkage(userID, task.ProjectID)
	return nil
}

// scheduleReminder derives reminder_at from start and the lead time
func (u *taskUsecase) scheduleReminder(task *domain.Task) {
	if task.ReminderMinutes <= 0 || task.Start.IsZero() {
		task.ReminderAt = nil
		return
	}
	reminderTime := task.Start.Add(-time.Duration(task.ReminderMinutes) * time.Minute)
	if reminderTime.After(time.Now()) {
		task.ReminderAt = &reminderTime
	}
}

func (u *taskUsecase) notifyLinkage(userID, projectID string) {
	if projectID != "" && u.onLinkageChanged != nil {
		u.onLinkageChanged(userID, projectID)
	}
}

func parsePriority(p string) domain.Priority {
	switch p {
	case "high":
		return domain.PriorityHigh
	case "low":
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

func parseCategory(c string) domain.Category {
	switch domain.Category(c) {
	case domain.CategoryProduct, domain.CategoryContent, domain.CategoryMoney, domain.CategoryMeeting:
		return domain.Category(c)
	default:
		return domain.CategoryAdmin
	}
}
