package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/identity"
)

// IdentityHandlers provides HTTP handlers for identity issuance.
type IdentityHandlers struct {
	ids *identity.Service
	log *zerolog.Logger
}

// NewIdentityHandlers creates a new identity handlers instance.
func NewIdentityHandlers(ids *identity.Service, logger *zerolog.Logger) *IdentityHandlers {
	return &IdentityHandlers{
		ids: ids,
		log: logger,
	}
}

// IDResponse carries a freshly issued identity.
type IDResponse struct {
	ID string `json:"id"`
}

// Issue handles anonymous identifier issuance.
// POST /id
func (h *IdentityHandlers) Issue(c *gin.Context) {
	id, err := h.ids.Issue(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue identity")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to generate identifier.",
			Message: "Unable to create id.",
		})
		return
	}

	c.JSON(http.StatusOK, IDResponse{ID: id})
}
