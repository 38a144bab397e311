package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const SuspensionReviewInterval = 5 * time.Minute

// NotificationPollInterval is how often the admin console polls the unread feed.
const NotificationPollInterval = 15 * time.Second

// Login attempt window for ADMIN_LOGIN_MAX_ATTEMPTS
const LoginAttemptWindow = time.Minute

// SMTP dial timeout
const MailDialTimeout = 10 * time.Second

// Public seller application throttle, per client address
const (
	ApplicationRateLimit  = 5
	ApplicationRateWindow = time.Hour
)

// Body size limit for admin forms and the application endpoint
const MaxRequestBodySize = 64 << 10
