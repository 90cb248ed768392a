package api

import (
	"log"
	"time"

	assistantDelivery "flowdesk-backend/internal/assistant/delivery"
	"flowdesk-backend/internal/assistant/orchestrator"
	assistantRepo "flowdesk-backend/internal/assistant/repository"
	"flowdesk-backend/internal/assistant/tools"
	authUsecase "flowdesk-backend/internal/auth/usecase"
	automationDelivery "flowdesk-backend/internal/automation/delivery"
	automationUsecasePkg "flowdesk-backend/internal/automation/usecase"
	clientdomain "flowdesk-backend/internal/client/domain"
	clientRepo "flowdesk-backend/internal/client/repository"
	clientUsecasePkg "flowdesk-backend/internal/client/usecase"
	projectdomain "flowdesk-backend/internal/project/domain"
	projectRepo "flowdesk-backend/internal/project/repository"
	projectUsecasePkg "flowdesk-backend/internal/project/usecase"
	taskdomain "flowdesk-backend/internal/task/domain"
	taskRepo "flowdesk-backend/internal/task/repository"
	taskUsecasePkg "flowdesk-backend/internal/task/usecase"
	"flowdesk-backend/pkg/ai"
	"flowdesk-backend/pkg/chroma"
	"flowdesk-backend/pkg/config"
	"flowdesk-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase       authUsecase.AuthUsecase
	taskUsecase       taskUsecasePkg.TaskUsecase
	projectUsecase    projectUsecasePkg.ProjectUsecase
	clientUsecase     clientUsecasePkg.ClientUsecase
	automationUsecase automationUsecasePkg.AutomationUsecase
	sseManager        *sse.Manager
	config            *config.Config
	automationHandler *automationDelivery.AutomationHandler
	assistantHandler  *assistantDelivery.AssistantHandler
}

// Repos bundles the repositories the handler wires adapters over
type Repos struct {
	Tasks    taskRepo.TaskRepository
	Projects projectRepo.ProjectRepository
	Clients  clientRepo.ClientRepository
	Runs     assistantRepo.RunRepository
}

// taskStatsAdapter adapts TaskRepository to ProjectUsecase.TaskStats
type taskStatsAdapter struct {
	tasks taskRepo.TaskRepository
}

func (a *taskStatsAdapter) CountByProject(userID, projectID string) (int, int, error) {
	tasks, err := a.tasks.FindByProjectID(userID, projectID)
	if err != nil {
		return 0, 0, err
	}
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return len(tasks), done, nil
}

// workspaceAdapter snapshots the repositories for the automation engine
type workspaceAdapter struct {
	repos Repos
}

func (a *workspaceAdapter) Projects(userID string) ([]*projectdomain.Project, error) {
	return a.repos.Projects.FindByUserID(userID, nil)
}

func (a *workspaceAdapter) Clients(userID string) ([]*clientdomain.Client, error) {
	return a.repos.Clients.FindByUserID(userID, nil)
}

func (a *workspaceAdapter) Tasks(userID string) ([]*taskdomain.Task, error) {
	tasks, _, err := a.repos.Tasks.FindByUserID(userID, nil, 0, 0)
	return tasks, err
}

// workspaceLoaderAdapter feeds the same snapshot to the assistant tools
type workspaceLoaderAdapter struct {
	ws *workspaceAdapter
}

func (a *workspaceLoaderAdapter) Load(userID string) (*tools.Workspace, error) {
	tasks, err := a.ws.Tasks(userID)
	if err != nil {
		return nil, err
	}
	projects, err := a.ws.Projects(userID)
	if err != nil {
		return nil, err
	}
	clients, err := a.ws.Clients(userID)
	if err != nil {
		return nil, err
	}
	return &tools.Workspace{Tasks: tasks, Projects: projects, Clients: clients}, nil
}

// clientContactsAdapter adapts ClientUsecase to the automation side
type clientContactsAdapter struct {
	clients clientUsecasePkg.ClientUsecase
}

func (a *clientContactsAdapter) TouchLastContact(userID, clientID string) error {
	_, err := a.clients.TouchLastContact(userID, clientID)
	return err
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	taskUc taskUsecasePkg.TaskUsecase,
	projectUc projectUsecasePkg.ProjectUsecase,
	clientUc clientUsecasePkg.ClientUsecase,
	automationUc automationUsecasePkg.AutomationUsecase,
	sseManager *sse.Manager,
	cfg *config.Config,
	repos Repos,
) *Handler {
	// Initialize runtime config for settings API
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	// Cross-feature wiring: progress recompute and derived spend
	projectUc.SetTaskStats(&taskStatsAdapter{tasks: repos.Tasks})
	taskUc.SetLinkageListener(projectUc.RecomputeProgress)
	clientUc.SetSpendSummer(repos.Projects)

	// Automation side effects
	automationUc.SetClientContacts(&clientContactsAdapter{clients: clientUc})
	automationUc.SetNotifier(sseManager)

	// Chroma note index is optional. Project and client writes mirror
	// their notes into it; answer_question searches it for citations.
	var noteIndex *chroma.NoteIndex
	if cfg.ChromaAPIKey != "" {
		ni, err := chroma.NewNoteIndex(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Chroma note index: %v", err)
		} else {
			noteIndex = ni
			projectUc.SetNoteIndexer(ni)
			clientUc.SetNoteIndexer(ni)
			log.Println("Chroma note index initialized")
		}
	}

	automationHandler := automationDelivery.NewAutomationHandler(automationUc)

	// AI provider with dynamic config getters for runtime updates
	aiCfg := ai.DynamicConfig{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	}
	provider, err := ai.NewProviderWithDynamicConfig(aiCfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize AI provider: %v. Assistant disabled.", err)
	} else {
		log.Printf("AI provider initialized: %s (dynamic config enabled)", cfg.AIProvider)
	}

	var assistantHandler *assistantDelivery.AssistantHandler
	if provider != nil {
		answerTool := tools.NewAnswerQuestionTool(provider)
		if noteIndex != nil {
			answerTool.SetNoteIndex(noteIndex)
		}

		registry := tools.NewRegistry(
			tools.NewSummarizeTool(provider),
			tools.NewRewriteTool(provider),
			tools.NewExtractFieldsTool(provider),
			tools.NewClassifyTagsTool(provider),
			tools.NewGenerateItemsTool(provider),
			answerTool,
		)

		runLog := orchestrator.NewRunLog(cfg.RunLogMaxEntries)
		orch := orchestrator.New(registry, provider,
			orchestrator.NewCache(cfg.CacheTTL, cfg.CacheMaxEntries),
			orchestrator.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
			runLog)
		orch.SetWorkspaceLoader(&workspaceLoaderAdapter{ws: &workspaceAdapter{repos: repos}})
		if repos.Runs != nil {
			orch.SetRunStore(repos.Runs)
		}

		assistantHandler = assistantDelivery.NewAssistantHandler(orch, runLog, repos.Runs)
		log.Println("Assistant orchestrator initialized")
	}

	return &Handler{
		authUsecase:       authUc,
		taskUsecase:       taskUc,
		projectUsecase:    projectUc,
		clientUsecase:     clientUc,
		automationUsecase: automationUc,
		sseManager:        sseManager,
		config:            cfg,
		automationHandler: automationHandler,
		assistantHandler:  assistantHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}

// GetAutomationSettings exposes the diagnostic rule thresholds so clients
// can explain to the user why a rule fired. Read-only; the values come
// from the environment at startup.
func (h *Handler) GetAutomationSettings(c *gin.Context) {
	a := h.config.Automation
	c.JSON(200, gin.H{
		"undercharge_threshold": a.UnderchargeThreshold,
		"burnout_week_hours":    a.BurnoutWeekHours,
		"back_to_back_gap":      a.BackToBackGap.String(),
		"ghosting_after":        a.GhostingAfter.String(),
		"deadline_window_days":  a.DeadlineWindowDays,
		"deadline_progress_pct": a.DeadlineProgressPct,
		"default_revisions":     a.DefaultRevisions,
		"overage_fee_rate":      a.OverageFeeRate,
		"overage_fee_flat":      a.OverageFeeFlat,
	})
}
