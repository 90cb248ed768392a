package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flowdesk-backend/internal/automation/domain"
	"flowdesk-backend/internal/automation/usecase"
)

type AutomationHandler struct {
	automationUsecase usecase.AutomationUsecase
}

func NewAutomationHandler(automationUsecase usecase.AutomationUsecase) *AutomationHandler {
	return &AutomationHandler{automationUsecase: automationUsecase}
}

type diagnosticRequest struct {
	Mode string `json:"mode"`
}

// RunDiagnostic handles POST /api/automation/diagnostic
func (h *AutomationHandler) RunDiagnostic(c *gin.Context) {
	userID := c.GetString("userID")

	var req diagnosticRequest
	_ = c.ShouldBindJSON(&req) // body is optional, mode falls back to the user's setting

	report, err := h.automationUsecase.RunDiagnostic(userID, domain.AutopilotMode(req.Mode))
	if err != nil {
		respondAutomationError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetApprovals handles GET /api/automation/approvals
func (h *AutomationHandler) GetApprovals(c *gin.Context) {
	userID := c.GetString("userID")

	approvals, err := h.automationUsecase.GetApprovals(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvals": approvals})
}

// GetRisks handles GET /api/automation/risks
func (h *AutomationHandler) GetRisks(c *gin.Context) {
	userID := c.GetString("userID")

	risks, err := h.automationUsecase.GetRisks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"risks": risks})
}

// GetHandled handles GET /api/automation/handled
func (h *AutomationHandler) GetHandled(c *gin.Context) {
	userID := c.GetString("userID")

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	actions, err := h.automationUsecase.GetHandled(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"handled": actions})
}

// ApproveRequest handles POST /api/automation/approvals/:id/approve
func (h *AutomationHandler) ApproveRequest(c *gin.Context) {
	userID := c.GetString("userID")
	approvalID := c.Param("id")

	action, err := h.automationUsecase.ApproveRequest(userID, approvalID)
	if err != nil {
		respondAutomationError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// RejectRequest handles POST /api/automation/approvals/:id/reject
func (h *AutomationHandler) RejectRequest(c *gin.Context) {
	userID := c.GetString("userID")
	approvalID := c.Param("id")

	if err := h.automationUsecase.RejectRequest(userID, approvalID); err != nil {
		respondAutomationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Approval rejected"})
}

// AcknowledgeRisk handles POST /api/automation/risks/:id/acknowledge
func (h *AutomationHandler) AcknowledgeRisk(c *gin.Context) {
	userID := c.GetString("userID")
	riskID := c.Param("id")

	if err := h.automationUsecase.AcknowledgeRisk(userID, riskID); err != nil {
		respondAutomationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Risk acknowledged"})
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// GetMode handles GET /api/automation/mode
func (h *AutomationHandler) GetMode(c *gin.Context) {
	userID := c.GetString("userID")
	c.JSON(http.StatusOK, gin.H{"mode": h.automationUsecase.GetMode(userID)})
}

// SetMode handles PUT /api/automation/mode
func (h *AutomationHandler) SetMode(c *gin.Context) {
	userID := c.GetString("userID")

	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.automationUsecase.SetMode(userID, domain.AutopilotMode(req.Mode)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}

func respondAutomationError(c *gin.Context, err error) {
	switch err.Error() {
	case "approval not found", "risk not found":
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case "unauthorized":
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case "invalid autopilot mode":
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
