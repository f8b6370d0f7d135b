package config

const (
	EnvPrefix = "SMARTPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv                 = "SMARTPOS_APP_ENV"
	EnvPort                   = "SMARTPOS_APP_PORT"
	EnvDBDSN                  = "SMARTPOS_DB_DSN"
	EnvDBDriver               = "SMARTPOS_DB_DRIVER"
	EnvDBHost                 = "SMARTPOS_DB_HOST"
	EnvDBUser                 = "SMARTPOS_DB_USER"
	EnvDBName                 = "SMARTPOS_DB_NAME"
	EnvDBPassword             = "SMARTPOS_DB_PASSWORD"
	EnvRedisURL               = "SMARTPOS_REDIS_URL"
	EnvJWTSecret              = "SMARTPOS_JWT_SECRET"
	EnvJWTIssuer              = "SMARTPOS_JWT_ISSUER"
	EnvJWTExpMins             = "SMARTPOS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SMARTPOS_REFRESH_TOKEN_TTL_MINUTES"
	EnvVAPIDPublicKey         = "SMARTPOS_VAPID_PUBLIC_KEY"
	EnvVAPIDPrivateKey        = "SMARTPOS_VAPID_PRIVATE_KEY"
	EnvCronInterval           = "SMARTPOS_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
