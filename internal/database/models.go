package database

// conversation states
const (
	IDLE                       = ""
	AWAITING_IMAGE_DESCRIPTION = "awaiting_image_description"
	AWAITING_PINCODE           = "awaiting_pincode"
)

// commands sent as message text by the front-end buttons
const (
	CMD_RESET                   = "reset"
	CMD_FIND_BY_PINCODE         = "find_by_pincode"
	CMD_FIND_OFFICE_BY_LOCATION = "find_office_by_location"
)

// keys of the values injected into the gin context
const (
	CTX_CONFIG     = "cnf"
	CTX_SESSIONS   = "sessions"
	CTX_MACHINE    = "machine"
	CTX_UPLOADS    = "uploads"
	CTX_METRICS    = "metrics"
	CTX_SESSION_ID = "session_id"
)
