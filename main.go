package main

import (
	"context"
	"log"
	"os"

	api "flowdesk-backend/cmd/api"
	assistantdomain "flowdesk-backend/internal/assistant/domain"
	assistantRepo "flowdesk-backend/internal/assistant/repository"
	authdomain "flowdesk-backend/internal/auth/domain"
	authRepo "flowdesk-backend/internal/auth/repository"
	authUsecase "flowdesk-backend/internal/auth/usecase"
	automationdomain "flowdesk-backend/internal/automation/domain"
	"flowdesk-backend/internal/automation/engine"
	automationRepo "flowdesk-backend/internal/automation/repository"
	automationUsecase "flowdesk-backend/internal/automation/usecase"
	clientdomain "flowdesk-backend/internal/client/domain"
	clientRepo "flowdesk-backend/internal/client/repository"
	clientUsecase "flowdesk-backend/internal/client/usecase"
	"flowdesk-backend/internal/notification"
	projectdomain "flowdesk-backend/internal/project/domain"
	projectRepo "flowdesk-backend/internal/project/repository"
	projectUsecase "flowdesk-backend/internal/project/usecase"
	taskdomain "flowdesk-backend/internal/task/domain"
	taskRepo "flowdesk-backend/internal/task/repository"
	taskUsecase "flowdesk-backend/internal/task/usecase"
	"flowdesk-backend/pkg/config"
	"flowdesk-backend/pkg/database"
	"flowdesk-backend/pkg/fcm"
	"flowdesk-backend/pkg/sse"
)

// workspaceSource snapshots the repositories for the diagnostic engine
type workspaceSource struct {
	tasks    taskRepo.TaskRepository
	projects projectRepo.ProjectRepository
	clients  clientRepo.ClientRepository
}

func (s *workspaceSource) Projects(userID string) ([]*projectdomain.Project, error) {
	return s.projects.FindByUserID(userID, nil)
}

func (s *workspaceSource) Clients(userID string) ([]*clientdomain.Client, error) {
	return s.clients.FindByUserID(userID, nil)
}

func (s *workspaceSource) Tasks(userID string) ([]*taskdomain.Task, error) {
	tasks, _, err := s.tasks.FindByUserID(userID, nil, 0, 0)
	return tasks, err
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.DeviceToken{},
		&taskdomain.Task{}, &projectdomain.Project{}, &clientdomain.Client{},
		&automationdomain.ApprovalRequest{}, &automationdomain.RiskAlert{}, &automationdomain.HandledAction{},
		&assistantdomain.Run{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	deviceTokenRepository := authRepo.NewDeviceTokenRepository(db)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	projectRepository := projectRepo.NewGormProjectRepository(db)
	clientRepository := clientRepo.NewGormClientRepository(db)
	automationRepository := automationRepo.NewAutomationRepository(db)
	runRepository := assistantRepo.NewRunRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize FCM Client (optional, reminders still go out over SSE)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("Warning: Failed to initialize FCM client (push reminders disabled): %v", err)
		} else {
			log.Println("FCM client initialized")
		}
	} else {
		log.Println("No Firebase credentials configured, FCM disabled")
	}

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepository, deviceTokenRepository, cfg)
	taskUc := taskUsecase.NewTaskUsecase(taskRepository)
	projectUc := projectUsecase.NewProjectUsecase(projectRepository)
	clientUc := clientUsecase.NewClientUsecase(clientRepository)
	automationUc := automationUsecase.NewAutomationUsecase(
		automationRepository,
		engine.New(cfg.Automation),
		&workspaceSource{tasks: taskRepository, projects: projectRepository, clients: clientRepository},
	)

	// Start the reminder scheduler
	reminderService := notification.NewService(taskRepository, deviceTokenRepository, sseManager, fcmClient)
	go reminderService.Start(context.Background())

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, taskUc, projectUc, clientUc, automationUc, sseManager, cfg, api.Repos{
		Tasks:    taskRepository,
		Projects: projectRepository,
		Clients:  clientRepository,
		Runs:     runRepository,
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Printf("Server starting on port %s", port)
	if err := handler.Start(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
