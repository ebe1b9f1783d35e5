package config

const (
	// Config errors
	ErrUnknownEngineFmt  = "unknown markdown engine %q"
	ErrUnknownBackendFmt = "unknown upload backend %q"
	ErrMissingBucket     = "upload backend s3 requires upload.s3.bucket"
	ErrMissingBaseURL    = "api.base_url must not be empty"

	// Storage errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Handler errors
	ErrInternalServerError = "Internal server error"
	ErrDraftNotFound       = "Draft not found"
	ErrLoginRequired       = "Login required"
	ErrParseUploadFmt      = "Failed to read upload: %v"
)
