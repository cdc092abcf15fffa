package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrAuthHeaderRequired     = "Signature header required"
	ErrInvalidSignatureFormat = "Invalid signature format"
	ErrInvalidSignature       = "Invalid signature"
	ErrInternalServerError    = "Internal server error"
	ErrRefreshChallenge       = "Failed to refresh challenge"
	ErrUnauthorized           = "Unauthorized"
	ErrIssueToken             = "Failed to issue session token"

	// API errors
	ErrUnknownResource   = "Unknown resource"
	ErrRecordNotFound    = "Record not found"
	ErrInvalidJSON       = "Invalid JSON body"
	ErrInvalidMultipart  = "Invalid multipart body"
	ErrSaveRecord        = "Failed to save record"
	ErrDeleteRecord      = "Failed to delete record"
	ErrListRecords       = "Failed to list records"
	ErrStoreImage        = "Failed to store image"
	ErrInvalidPreset     = "Invalid upload preset"
	ErrMissingFile       = "Missing file"
	ErrStreamUnsupported = "Streaming unsupported"

	// Client errors
	ErrGenericMutation = "Something went wrong, please try again"
)
