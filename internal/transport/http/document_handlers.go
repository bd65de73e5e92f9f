package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/store"
)

// DocumentHandlers provides HTTP handlers for schema-checked document
// submission. Submission outcomes are fanned out to every connected session
// as notifications.
type DocumentHandlers struct {
	store store.DocumentStore
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewDocumentHandlers creates a new document handlers instance.
func NewDocumentHandlers(st store.DocumentStore, hub *core.Hub, logger *zerolog.Logger) *DocumentHandlers {
	return &DocumentHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// SubmitDocumentRequest mirrors the schema served at /schema.
type SubmitDocumentRequest struct {
	Name string `json:"name" binding:"required"`
	Age  int    `json:"age" binding:"required,gte=18"`
}

// DocumentResponse represents a stored document in API responses.
type DocumentResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	CreatedAt string `json:"createdAt"`
}

// Submit handles document submission.
// POST /documents
func (h *DocumentHandlers) Submit(c *gin.Context) {
	var req SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid document submission")
		h.notify("Failed to create user.")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid JSON format",
			"details": err.Error(),
		})
		return
	}

	doc := &store.Document{Name: req.Name, Age: req.Age}
	if err := h.store.SaveDocument(c.Request.Context(), doc); err != nil {
		h.log.Error().Err(err).Msg("failed to save document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.notify("Created user.")
	h.log.Info().Int64("document_id", doc.ID).Msg("document saved")
	c.JSON(http.StatusCreated, gin.H{"message": "Data saved successfully"})
}

// List handles listing stored documents.
// GET /documents
func (h *DocumentHandlers) List(c *gin.Context) {
	docs, err := h.store.ListDocuments(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list documents")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		response = append(response, DocumentResponse{
			ID:        doc.ID,
			Name:      doc.Name,
			Age:       doc.Age,
			CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}

// Schema returns the JSON schema enforced on submissions.
// GET /schema
func (h *DocumentHandlers) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"type": "object",
		"properties": gin.H{
			"name": gin.H{"type": "string"},
			"age":  gin.H{"type": "integer", "minimum": 18},
		},
		"required":             []string{"name", "age"},
		"additionalProperties": false,
	})
}

func (h *DocumentHandlers) notify(value string) {
	h.hub.BroadcastAll(&core.Event{
		Kind:   core.EventNotification,
		NoteID: uuid.NewString(),
		Value:  value,
	})
}
