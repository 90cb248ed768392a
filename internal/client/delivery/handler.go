package delivery

import (
	"net/http"

	"flowdesk-backend/internal/client/usecase"

	"github.com/gin-gonic/gin"
)

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	clientUsecase usecase.ClientUsecase
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientUsecase usecase.ClientUsecase) *ClientHandler {
	return &ClientHandler{
		clientUsecase: clientUsecase,
	}
}

// GetClients returns all clients for the authenticated user
// GET /api/clients?status=active
func (h *ClientHandler) GetClients(c *gin.Context) {
	userID := c.GetString("userID")

	status := c.Query("status")
	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}

	clients, err := h.clientUsecase.GetUserClients(userID, statusPtr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// GetClientByID returns a specific client
// GET /api/clients/:id
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	userID := c.GetString("userID")
	clientID := c.Param("id")

	client, err := h.clientUsecase.GetClientByID(userID, clientID)
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// GetClientTotalSpent returns the derived sum of linked project prices
// GET /api/clients/:id/total-spent
func (h *ClientHandler) GetClientTotalSpent(c *gin.Context) {
	userID := c.GetString("userID")
	clientID := c.Param("id")

	total, err := h.clientUsecase.GetTotalSpent(userID, clientID)
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "total_spent": total})
}

// CreateClient creates a new client
// POST /api/clients
func (h *ClientHandler) CreateClient(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.ClientCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clientUsecase.CreateClient(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, client)
}

// UpdateClient updates an existing client
// PUT /api/clients/:id
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	userID := c.GetString("userID")
	clientID := c.Param("id")

	var updates usecase.ClientUpdateRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clientUsecase.UpdateClient(userID, clientID, updates)
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// TouchClientContact stamps the communication history with "now"
// POST /api/clients/:id/touch
func (h *ClientHandler) TouchClientContact(c *gin.Context) {
	userID := c.GetString("userID")
	clientID := c.Param("id")

	client, err := h.clientUsecase.TouchLastContact(userID, clientID)
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient deletes a client
// DELETE /api/clients/:id
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	userID := c.GetString("userID")
	clientID := c.Param("id")

	err := h.clientUsecase.DeleteClient(userID, clientID)
	if err != nil {
		respondClientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

func respondClientError(c *gin.Context, err error) {
	switch err.Error() {
	case "client not found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
	case "unauthorized":
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
