package apierror

// Error type URIs following the urn:healthlog:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	TypeValidation    = "urn:healthlog:error:validation"      // 400
	TypeBadRequest    = "urn:healthlog:error:bad_request"     // 400
	TypeInvalidUUID   = "urn:healthlog:error:invalid_uuid"    // 400
	TypeUnauthorized  = "urn:healthlog:error:unauthorized"    // 401
	TypeForbidden     = "urn:healthlog:error:forbidden"       // 403
	TypeNotFound      = "urn:healthlog:error:not_found"       // 404
	TypeNothingToUndo = "urn:healthlog:error:nothing_to_undo" // 409
	TypeUndoExpired   = "urn:healthlog:error:undo_expired"    // 410
	TypeRateLimit     = "urn:healthlog:error:rate_limit"      // 429
	TypeInternal      = "urn:healthlog:error:internal"        // 500
	TypeUnavailable   = "urn:healthlog:error:unavailable"     // 503
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation    = "Validation Error"
	TitleBadRequest    = "Bad Request"
	TitleInvalidUUID   = "Invalid UUID Format"
	TitleUnauthorized  = "Authentication Required"
	TitleForbidden     = "Permission Denied"
	TitleNotFound      = "Resource Not Found"
	TitleNothingToUndo = "Nothing To Undo"
	TitleUndoExpired   = "Undo Window Expired"
	TitleRateLimit     = "Rate Limit Exceeded"
	TitleInternal      = "Internal Server Error"
	TitleUnavailable   = "Service Unavailable"
)
