package config

const (
	EngineGFM     = "gfm"
	EngineClassic = "classic"
	EngineMmark   = "mmark"
)

const (
	UploadBackendAPI = "api"
	UploadBackendS3  = "s3"
)
