package config

import "github.com/dmitrijs2005/gophchat/internal/flagx"

// parseEnv overlays variables from .env and the process environment.
// Malformed numbers or durations panic.
func parseEnv(config *Config) {
	if err := flagx.LoadDotEnv(); err != nil {
		panic(err)
	}

	flagx.StringEnv(&config.EndpointAddrGRPC, "ADDRESS")
	flagx.StringEnv(&config.DatabaseDSN, "DATABASE_DSN")
	flagx.StringEnv(&config.SecretKey, "SECRET_KEY")
	flagx.StringEnv(&config.S3RootUser, "S3_ROOT_USER")
	flagx.StringEnv(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	flagx.StringEnv(&config.S3Bucket, "S3_BUCKET")
	flagx.StringEnv(&config.S3Region, "S3_REGION")
	flagx.StringEnv(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	flagx.StringEnv(&config.SMTPAddr, "SMTP_ADDR")
	flagx.StringEnv(&config.SMTPUsername, "SMTP_USERNAME")
	flagx.StringEnv(&config.SMTPPassword, "SMTP_PASSWORD")
	flagx.StringEnv(&config.MailFrom, "MAIL_FROM")
	flagx.StringEnv(&config.OpenAIAPIKey, "OPENAI_API_KEY")
	flagx.StringEnv(&config.OpenAIModel, "OPENAI_MODEL")
	flagx.StringEnv(&config.OpenAIBaseURL, "OPENAI_BASE_URL")
	flagx.StringEnv(&config.LogBackend, "LOG_BACKEND")
	flagx.StringEnv(&config.LogLevel, "LOG_LEVEL")

	for _, err := range []error{
		flagx.DurationEnv(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL"),
		flagx.DurationEnv(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL"),
		flagx.DurationEnv(&config.ResetTokenValidityDuration, "RESET_TOKEN_TTL"),
		flagx.IntEnv(&config.OpenAIMaxTokens, "OPENAI_MAX_TOKENS"),
	} {
		if err != nil {
			panic(err)
		}
	}
}
