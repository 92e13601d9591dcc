package api

import (
	"net/http"
	"strconv"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/service"
	"github.com/ericogr/encounters/internal/storage"
	"github.com/gin-gonic/gin"
)

// EncounterHandler groups the duel, heist and account HTTP handlers.
type EncounterHandler struct {
	svc  *service.Encounters
	repo storage.Repository
}

// NewEncounterHandler creates a handler backed by the live encounter service
// and the persistence layer used for account and history reads.
func NewEncounterHandler(svc *service.Encounters, repo storage.Repository) *EncounterHandler {
	return &EncounterHandler{svc: svc, repo: repo}
}

type ChallengeRequest struct {
	Target string `json:"target" binding:"required"`
	Wager  int64  `json:"wager"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type ActionRequest struct {
	Action string `json:"action" binding:"required"`
}

type OrganizeRequest struct {
	RequiredSize int    `json:"required_size"`
	Variant      string `json:"variant"`
}

// ChallengeDuel issues a duel challenge from the caller to the target.
func (h *EncounterHandler) ChallengeDuel(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	snap, err := h.svc.ChallengeDuel(c.Request.Context(), currentPlayer(c), req.Target, req.Wager)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// RespondDuel accepts or declines the pending challenge addressed to the caller.
func (h *EncounterHandler) RespondDuel(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	snap, err := h.svc.RespondDuel(c.Request.Context(), c.Param("key"), currentPlayer(c), *req.Accept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EncounterHandler) SubmitDuelAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	snap, err := h.svc.SubmitDuelAction(c.Request.Context(), c.Param("key"), currentPlayer(c), req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// OrganizeHeist opens a forming party led by the caller. An empty body
// organizes a minimum-size cooperative heist.
func (h *EncounterHandler) OrganizeHeist(c *gin.Context) {
	var req OrganizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
			return
		}
	}
	snap, err := h.svc.OrganizeHeist(c.Request.Context(), currentPlayer(c), req.RequiredSize, req.Variant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *EncounterHandler) JoinHeist(c *gin.Context) {
	snap, err := h.svc.JoinHeist(c.Request.Context(), c.Param("key"), currentPlayer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EncounterHandler) CancelHeist(c *gin.Context) {
	snap, err := h.svc.CancelHeist(c.Request.Context(), c.Param("key"), currentPlayer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListSessions returns snapshots of every live session.
func (h *EncounterHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ActiveSessions())
}

func (h *EncounterHandler) GetSession(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CooldownRemaining reports how long the caller must wait before starting
// another encounter of the given action type.
func (h *EncounterHandler) CooldownRemaining(c *gin.Context) {
	action := c.Param("action")
	remaining, err := h.svc.CooldownRemaining(currentPlayer(c), action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			constants.JSONKeyError:  constants.ErrUnknownCooldownType,
			constants.JSONKeyReason: game.ReasonOf(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"action":            action,
		"remaining_seconds": remaining.Seconds(),
		"ready":             remaining == 0,
	})
}

// GetAccount returns balance, progression, inventory and punishment status
// for a player.
func (h *EncounterHandler) GetAccount(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := c.Param("id")
	acc, err := h.repo.GetAccount(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchAccount})
		return
	}
	items, err := h.repo.GetInventory(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchAccount})
		return
	}
	jailed, err := h.repo.IsPunished(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchAccount})
		return
	}
	wanted, err := h.repo.ActiveWanted(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchAccount})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player_id": acc.PlayerID,
		"balance":   acc.Balance,
		"xp":        acc.XP,
		"level":     acc.Level,
		"inventory": items,
		"jailed":    jailed,
		"wanted":    wanted,
	})
}

// RecentEncounters lists the most recently ended sessions. The optional
// limit query parameter caps the result.
func (h *EncounterHandler) RecentEncounters(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
			return
		}
		limit = n
	}
	recs, err := h.repo.RecentEncounters(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchHistory})
		return
	}
	c.JSON(http.StatusOK, recs)
}
