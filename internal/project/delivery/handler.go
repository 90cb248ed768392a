package delivery

import (
	"net/http"

	"flowdesk-backend/internal/project/usecase"

	"github.com/gin-gonic/gin"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectUsecase usecase.ProjectUsecase
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectUsecase usecase.ProjectUsecase) *ProjectHandler {
	return &ProjectHandler{
		projectUsecase: projectUsecase,
	}
}

// GetProjects returns all projects for the authenticated user
// GET /api/projects?status=active
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	userID := c.GetString("userID")

	status := c.Query("status")
	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}

	projects, err := h.projectUsecase.GetUserProjects(userID, statusPtr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProjectByID returns a specific project
// GET /api/projects/:id
func (h *ProjectHandler) GetProjectByID(c *gin.Context) {
	userID := c.GetString("userID")
	projectID := c.Param("id")

	project, err := h.projectUsecase.GetProjectByID(userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.ProjectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectUsecase.CreateProject(userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// UpdateProject updates an existing project
// PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID := c.GetString("userID")
	projectID := c.Param("id")

	var updates usecase.ProjectUpdateRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectUsecase.UpdateProject(userID, projectID, updates)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// DeleteProject deletes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID := c.GetString("userID")
	projectID := c.Param("id")

	err := h.projectUsecase.DeleteProject(userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func respondProjectError(c *gin.Context, err error) {
	switch err.Error() {
	case "project not found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case "unauthorized":
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
