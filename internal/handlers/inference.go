package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"y-chat/internal/inference"
	"y-chat/internal/observability"
)

type InferenceHandler struct {
	client *inference.Client
}

func NewInferenceHandler(client *inference.Client) *InferenceHandler {
	return &InferenceHandler{client: client}
}

// Chat generates a reply for the given message. An unrecognized or missing
// model silently resolves to the default preset; backend failures surface
// as the preset's fixed apology text, never as an error status.
func (h *InferenceHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
		Model   string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "メッセージが必要です"})
		return
	}

	model := inference.ResolveModel(req.Model)
	log.Printf("inference request: model=%s message=%q", model, req.Message)
	observability.IncInferenceRequest(model)

	response := h.client.Generate(c.Request.Context(), model, req.Message)

	c.JSON(http.StatusOK, gin.H{
		"response":  response,
		"model":     model,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health is the liveness probe for the inference surface.
func (h *InferenceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "inference proxy is running"})
}
