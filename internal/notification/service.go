package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	authrepo "flowdesk-backend/internal/auth/repository"
	taskrepo "flowdesk-backend/internal/task/repository"
	"flowdesk-backend/pkg/fcm"
	"flowdesk-backend/pkg/sse"
)

// Service pushes task reminders. A ticker scans for due reminders once a
// minute; each one goes out over SSE and, when configured, FCM.
type Service struct {
	taskRepo   taskrepo.TaskRepository
	deviceRepo authrepo.DeviceTokenRepository
	sseManager *sse.Manager
	fcmClient  *fcm.Client
	interval   time.Duration
}

func NewService(taskRepo taskrepo.TaskRepository, deviceRepo authrepo.DeviceTokenRepository, sseManager *sse.Manager, fcmClient *fcm.Client) *Service {
	return &Service{
		taskRepo:   taskRepo,
		deviceRepo: deviceRepo,
		sseManager: sseManager,
		fcmClient:  fcmClient,
		interval:   time.Minute,
	}
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[Reminder] Scheduler started, scanning every %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Reminder] Scheduler stopped")
			return
		case now := <-ticker.C:
			s.deliverDue(ctx, now)
		}
	}
}

func (s *Service) deliverDue(ctx context.Context, now time.Time) {
	tasks, err := s.taskRepo.FindPendingReminders(now)
	if err != nil {
		log.Printf("[Reminder] Failed to load pending reminders: %v", err)
		return
	}

	for _, task := range tasks {
		if s.sseManager != nil {
			s.sseManager.Notify(task.UserID, "task_reminder", map[string]interface{}{
				"task_id": task.ID,
				"title":   task.Title,
				"start":   task.Start,
			})
		}

		s.pushToDevices(ctx, task.UserID, task.Title, task.Start)

		if err := s.taskRepo.MarkReminderSent(task.ID); err != nil {
			log.Printf("[Reminder] Failed to mark reminder sent for task %s: %v", task.ID, err)
		}
	}

	if len(tasks) > 0 {
		log.Printf("[Reminder] Delivered %d reminder(s)", len(tasks))
	}
}

func (s *Service) pushToDevices(ctx context.Context, userID, title string, start time.Time) {
	if s.fcmClient == nil || s.deviceRepo == nil {
		return
	}

	tokens, err := s.deviceRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[Reminder] Failed to load device tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title: "Upcoming: " + title,
		Body:  fmt.Sprintf("Starts at %s", start.Format("15:04")),
		Data: map[string]string{
			"type": "task_reminder",
		},
	})
	if err != nil {
		log.Printf("[Reminder] Push failed for user %s: %v", userID, err)
		return
	}

	// stale tokens come back as failures, drop them
	for _, token := range failed {
		if err := s.deviceRepo.DeleteToken(token); err != nil {
			log.Printf("[Reminder] Failed to prune token: %v", err)
		}
	}
}
