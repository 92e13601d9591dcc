package api

import (
	"github.com/ericogr/encounters/internal/constants"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route under /api. Reads of the stream, version and
// history are public; everything acting on behalf of a player requires a
// bearer token.
func NewRouter(h *EncounterHandler, hub *Hub, secret []byte) *gin.Engine {
	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.GET(constants.RouteStream, hub.Serve)
		apiRoutes.GET(constants.RouteSessions, h.ListSessions)
		apiRoutes.GET(constants.RouteSessionByKey, h.GetSession)
		apiRoutes.GET(constants.RouteRecentEncounters, h.RecentEncounters)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(AuthRequired(secret))

		protected.POST(constants.RouteDuels, h.ChallengeDuel)
		protected.POST(constants.RouteDuelRespond, h.RespondDuel)
		protected.POST(constants.RouteDuelAction, h.SubmitDuelAction)
		protected.POST(constants.RouteHeists, h.OrganizeHeist)
		protected.POST(constants.RouteHeistJoin, h.JoinHeist)
		protected.POST(constants.RouteHeistCancel, h.CancelHeist)
		protected.GET(constants.RouteCooldown, h.CooldownRemaining)
		protected.GET(constants.RoutePlayerAccount, h.GetAccount)
	}
	return router
}
