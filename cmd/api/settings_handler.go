package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ollamaSettings is the mutable slice of configuration: which local model
// serves the assistant. Everything else in config.Config is fixed at boot.
type ollamaSettings struct {
	mu      sync.RWMutex
	baseURL string
	model   string
}

var ollamaRuntime ollamaSettings

// InitRuntimeConfig seeds the runtime settings from the environment config.
func InitRuntimeConfig(baseURL, model string) {
	ollamaRuntime.mu.Lock()
	defer ollamaRuntime.mu.Unlock()
	ollamaRuntime.baseURL = strings.TrimRight(baseURL, "/")
	ollamaRuntime.model = model
}

// GetRuntimeOllamaBaseURL is handed to the AI provider as a dynamic getter,
// so settings changes take effect on the next request without a restart.
func GetRuntimeOllamaBaseURL() string {
	ollamaRuntime.mu.RLock()
	defer ollamaRuntime.mu.RUnlock()
	return ollamaRuntime.baseURL
}

func GetRuntimeOllamaModel() string {
	ollamaRuntime.mu.RLock()
	defer ollamaRuntime.mu.RUnlock()
	return ollamaRuntime.model
}

// GetOllamaSettings handles GET /api/settings/ollama.
func GetOllamaSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ollama_base_url": GetRuntimeOllamaBaseURL(),
		"ollama_model":    GetRuntimeOllamaModel(),
	})
}

// UpdateOllamaSettings handles PUT /api/settings/ollama. An empty model
// keeps the current one; the base URL is required.
func UpdateOllamaSettings(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
		OllamaModel   string `json:"ollama_model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ollamaRuntime.mu.Lock()
	ollamaRuntime.baseURL = strings.TrimRight(req.OllamaBaseURL, "/")
	if req.OllamaModel != "" {
		ollamaRuntime.model = req.OllamaModel
	}
	ollamaRuntime.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":         "settings updated",
		"ollama_base_url": GetRuntimeOllamaBaseURL(),
		"ollama_model":    GetRuntimeOllamaModel(),
	})
}

// TestOllamaConnection handles POST /api/settings/ollama/test. It probes the
// given server (or the current one when the body is empty) via /api/tags,
// which every Ollama build serves.
func TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	_ = c.ShouldBindJSON(&req)
	base := strings.TrimRight(req.OllamaBaseURL, "/")
	if base == "" {
		base = GetRuntimeOllamaBaseURL()
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/api/tags")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": base,
	})
}
