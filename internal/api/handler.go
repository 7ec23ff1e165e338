package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store"
)

const defaultSkippedLimit = 100

// Handler serves the operational endpoints over the store
type Handler struct {
	store store.Store
}

// NewHandler creates the operational API handler
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// HealthCheck reports liveness
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// ListCheckpoints returns every chain's committed position
func (h *Handler) ListCheckpoints(c *gin.Context) {
	checkpoints, err := h.store.ListCheckpoints(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "failed to list checkpoints")
		return
	}
	c.JSON(200, gin.H{"checkpoints": checkpoints})
}

// ListSkippedTransactions returns the most recent skipped transactions of
// one chain
func (h *Handler) ListSkippedTransactions(c *gin.Context) {
	chain := domain.Chain(c.Query("chain"))
	if !domain.IsValidChain(chain) {
		respondBadRequest(c, "unknown chain", string(chain))
		return
	}
	limit := defaultSkippedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "limit must be a positive integer", raw)
			return
		}
		limit = parsed
	}
	skipped, err := h.store.ListSkippedTransactions(c.Request.Context(), chain, limit)
	if err != nil {
		respondInternalError(c, err, "failed to list skipped transactions",
			zap.String("chain", string(chain)))
		return
	}
	c.JSON(200, gin.H{"skipped": skipped})
}

// GetUserChallenges returns one user's challenge progress rows
func (h *Handler) GetUserChallenges(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondBadRequest(c, "user_id must be a positive integer", c.Param("user_id"))
		return
	}
	rows, err := h.store.GetUserChallengesByUser(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "failed to load user challenges",
			zap.Int64("user_id", userID))
		return
	}
	c.JSON(200, gin.H{"user_challenges": rows})
}

// GetUser returns the current version of one user
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondBadRequest(c, "user_id must be a positive integer", c.Param("user_id"))
		return
	}
	user, lookupErr := h.store.GetCurrentUser(c.Request.Context(), userID)
	if lookupErr != nil {
		if errors.Is(lookupErr, domain.ErrEntityNotFound) {
			respondNotFound(c, "user not found")
			return
		}
		respondInternalError(c, lookupErr, "failed to load user",
			zap.Int64("user_id", userID))
		return
	}
	c.JSON(200, gin.H{"user": user})
}
