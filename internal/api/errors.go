package api

import (
	"net/http"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/gin-gonic/gin"
)

// statusFor maps a rejection reason to the HTTP status returned to clients.
func statusFor(reason game.Reason) int {
	switch reason {
	case game.ReasonNotFound:
		return http.StatusNotFound
	case game.ReasonNotParticipant, game.ReasonNotOrganizer, game.ReasonSelfJailed:
		return http.StatusForbidden
	case game.ReasonOnCooldown:
		return http.StatusTooManyRequests
	case game.ReasonInvalidAction, game.ReasonInvalidTarget, game.ReasonInvalidPartySize:
		return http.StatusBadRequest
	case game.ReasonInsufficientFunds:
		return http.StatusPaymentRequired
	case game.ReasonExpired, game.ReasonTimedOut:
		return http.StatusGone
	default:
		return http.StatusConflict
	}
}

// respondError writes a rejection with its reason code, or a generic 500 for
// internal failures.
func respondError(c *gin.Context, err error) {
	reason := game.ReasonOf(err)
	if reason == "" {
		logging.Error("request failed", err, logging.Fields{
			constants.LogFieldPlayerID: currentPlayer(c),
			"path":                     c.FullPath(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	}
	c.JSON(statusFor(reason), gin.H{
		constants.JSONKeyError:  err.Error(),
		constants.JSONKeyReason: reason,
	})
}
