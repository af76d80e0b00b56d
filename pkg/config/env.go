package config

// EnvPrefix is the shared prefix for every environment variable the service reads.
const EnvPrefix = "AGENCYDESK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "AGENCYDESK_DB_DSN"
	EnvDBHost = "AGENCYDESK_DB_HOST"
	EnvDBUser = "AGENCYDESK_DB_USER"
	EnvDBName = "AGENCYDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
