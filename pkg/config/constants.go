package config

const (
	EnvPrefix = "HOMEWARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "HOMEWARD_APP_ENV"
	EnvPort     = "HOMEWARD_APP_PORT"
	EnvLogLevel = "HOMEWARD_LOG_LEVEL"

	EnvDBDSN  = "HOMEWARD_DB_DSN"
	EnvDBHost = "HOMEWARD_DB_HOST"
	EnvDBUser = "HOMEWARD_DB_USER"
	EnvDBName = "HOMEWARD_DB_NAME"

	EnvRedisURL = "HOMEWARD_REDIS_URL"

	EnvJWTSecret = "HOMEWARD_JWT_SECRET"
	EnvJWTIssuer = "HOMEWARD_JWT_ISSUER"

	EnvGCPProjectID            = "HOMEWARD_GCP_PROJECT_ID"
	EnvPubSubDomainTopic       = "HOMEWARD_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationTopic = "HOMEWARD_PUBSUB_NOTIFICATION_TOPIC"

	EnvStripeEnv = "HOMEWARD_STRIPE_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
