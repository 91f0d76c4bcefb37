package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solar-fleet-backend/config"
	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/entitlement"
	"solar-fleet-backend/internal/ingest"
	"solar-fleet-backend/internal/integrations"
	"solar-fleet-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	cfg          *config.Config
	issuer       *auth.TokenIssuer
	entitlements *entitlement.Resolver
	audit        *audit.Sink
	ingest       *ingest.Service
	sim          integrations.SimProvider
	logger       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	cfg *config.Config,
	issuer *auth.TokenIssuer,
	resolver *entitlement.Resolver,
	sink *audit.Sink,
	ingestSvc *ingest.Service,
	sim integrations.SimProvider,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:        s,
		cfg:          cfg,
		issuer:       issuer,
		entitlements: resolver,
		audit:        sink,
		ingest:       ingestSvc,
		sim:          sim,
		logger:       logger,
	}
}

// fail maps a domain error onto the wire envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), e.Payload())
}
