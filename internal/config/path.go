package config

const (
	// Multipart part names shared by the API server and the admin client.
	PartPayload = "payload"
	PartImage   = "image"

	// Cloudinary-compatible upload form fields.
	PartFile         = "file"
	PartUploadPreset = "upload_preset"

	DefaultConfigPath = "config.yaml"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"

	StoreLocal = "local"
	StoreS3    = "s3"

	AuthEd25519 = "ed25519"
	AuthClerk   = "clerk"
)

const (
	EnvConfigPath      = "FOLIO_CONFIG"
	EnvJWTSecret       = "FOLIO_JWT_SECRET"
	EnvEd25519PubKey   = "FOLIO_ED25519_PUBKEY"
	EnvAdminToken      = "FOLIO_TOKEN"
	EnvClerkKey        = "CLERK_API"
	EnvAWSAccessKeyID  = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvCloudinaryCloud = "CLOUDINARY_CLOUD_NAME"
)
