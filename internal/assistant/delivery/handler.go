package delivery

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flowdesk-backend/internal/assistant/orchestrator"
	"flowdesk-backend/internal/assistant/repository"
)

type AssistantHandler struct {
	orchestrator *orchestrator.Orchestrator
	runLog       *orchestrator.RunLog
	runRepo      repository.RunRepository
}

func NewAssistantHandler(o *orchestrator.Orchestrator, runLog *orchestrator.RunLog, runRepo repository.RunRepository) *AssistantHandler {
	return &AssistantHandler{orchestrator: o, runLog: runLog, runRepo: runRepo}
}

type executeRequest struct {
	Tool   string          `json:"tool"`
	Prompt string          `json:"prompt"`
	Input  json.RawMessage `json:"input"`
}

// Execute handles POST /api/assistant/execute. Failures come back as 200s
// with success=false so the UI always has a displayable output.
func (h *AssistantHandler) Execute(c *gin.Context) {
	userID := c.GetString("userID")

	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Input) == 0 {
		req.Input = json.RawMessage(`{}`)
	}

	resp := h.orchestrator.Execute(c.Request.Context(), orchestrator.Request{
		UserID:   userID,
		ToolName: req.Tool,
		Prompt:   req.Prompt,
		Input:    req.Input,
	})
	c.JSON(http.StatusOK, resp)
}

// GetTools handles GET /api/assistant/tools
func (h *AssistantHandler) GetTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.orchestrator.Registry().Catalog()})
}

// GetRuns handles GET /api/assistant/runs. Durable history when persistence
// is wired, the in-process ring otherwise.
func (h *AssistantHandler) GetRuns(c *gin.Context) {
	userID := c.GetString("userID")

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if h.runRepo != nil {
		runs, err := h.runRepo.FindByUserID(userID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
		return
	}

	runs := h.runLog.Recent(limit)
	mine := runs[:0]
	for _, run := range runs {
		if run.UserID == userID {
			mine = append(mine, run)
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": mine})
}
