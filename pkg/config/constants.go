package config

const (
	EnvPrefix = "ORDERGUARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ORDERGUARD_APP_ENV"
	EnvPort     = "ORDERGUARD_APP_PORT"
	EnvDBDSN    = "ORDERGUARD_DB_DSN"
	EnvDBHost   = "ORDERGUARD_DB_HOST"
	EnvDBUser   = "ORDERGUARD_DB_USER"
	EnvDBName   = "ORDERGUARD_DB_NAME"
	EnvRedisURL = "ORDERGUARD_REDIS_URL"

	EnvGCPProjectID       = "ORDERGUARD_GCP_PROJECT_ID"
	EnvPubSubDomainTopic  = "ORDERGUARD_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub    = "ORDERGUARD_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPubSubDomainDLQ    = "ORDERGUARD_PUBSUB_DOMAIN_DLQ_TOPIC"
	EnvInsuranceRate      = "ORDERGUARD_INSURANCE_DEFAULT_RATE"
	EnvInsuranceMinimum   = "ORDERGUARD_INSURANCE_MINIMUM_BALANCE"
	EnvSlaPollInterval    = "ORDERGUARD_SLA_POLL_INTERVAL"
	EnvSlaTimerBatchSize  = "ORDERGUARD_SLA_TIMER_BATCH_SIZE"
	EnvOutboxBatchSize    = "ORDERGUARD_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPollMS       = "ORDERGUARD_OUTBOX_PUBLISH_POLL_MS"
	EnvOutboxMaxAttempts  = "ORDERGUARD_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetentionTTL = "ORDERGUARD_OUTBOX_RETENTION_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
