package constants

// Centralized constants for env keys, routes, JSON keys and log fields.
const (
	// Environment variable keys
	EnvConfigPath = "ENCOUNTERS_CONFIG"
	EnvDBPath     = "ENCOUNTERS_DB"
	EnvAddress    = "ENCOUNTERS_ADDRESS"
	EnvLogLevel   = "ENCOUNTERS_LOG_LEVEL"
	EnvJWTSecret  = "ENCOUNTERS_JWT_SECRET"
	EnvHealthURL  = "ENCOUNTERS_HEALTH_URL"

	DefaultConfigPath = "./encounters_config.json"
	DefaultDBPath     = "./data/encounters.db"
	DefaultAddress    = ":8080"

	// HTTP headers
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "

	// gin context key holding the authenticated player ID
	ContextPlayerID = "playerID"
)

// Cooldown action types
const (
	ActionTypeDuel    = "duel"
	ActionTypeHeist   = "heist"
	ActionTypeRobbery = "robbery"
)

// Punishment reasons handed to the punishment gateway
const (
	ReasonHeistFailed     = "heist_failed"
	ReasonRobberyCaptured = "robbery_captured"
)

// Routes used by the backend router
const (
	RouteAPIPrefix        = "/api"
	RouteVersion          = "/version"
	RouteDuels            = "/duels"
	RouteDuelRespond      = "/duels/:key/respond"
	RouteDuelAction       = "/duels/:key/actions"
	RouteHeists           = "/heists"
	RouteHeistJoin        = "/heists/:key/join"
	RouteHeistCancel      = "/heists/:key/cancel"
	RouteSessions         = "/sessions"
	RouteSessionByKey     = "/sessions/:key"
	RouteCooldown         = "/cooldowns/:action"
	RoutePlayerAccount    = "/players/:id/account"
	RouteRecentEncounters = "/encounters/recent"
	RouteStream           = "/stream"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyReason  = "reason"
	JSONKeyMessage = "message"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrAuthRequired        = "Authentication required"
	ErrInvalidSession      = "Invalid session token"
	ErrInternal            = "Internal error"
	ErrFailedFetchAccount  = "Failed to fetch account"
	ErrFailedFetchHistory  = "Failed to fetch encounter history"
	ErrUnknownCooldownType = "Unknown cooldown action type"
	ErrStreamUpgradeFailed = "Failed to open event stream"
)

// Logging field names
const (
	LogFieldSessionKey = "session_key"
	LogFieldKind       = "kind"
	LogFieldState      = "state"
	LogFieldPlayerID   = "player_id"
	LogFieldTarget     = "target"
	LogFieldAction     = "action"
	LogFieldAmount     = "amount"
	LogFieldEffect     = "effect"
	LogFieldWinner     = "winner"
	LogFieldMembers    = "members"
	LogFieldAddr       = "addr"
	LogFieldSubscriber = "subscriber"
)
