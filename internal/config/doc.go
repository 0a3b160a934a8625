// Package config loads the Twilio credentials and delivery tuning for the server.
//
// Configuration is read once at process start. An optional dotenv file is loaded
// first (github.com/joho/godotenv); variables already present in the process
// environment take precedence over the file.
//
// Required:
//   - TWILIO_ACCOUNT_SID
//   - TWILIO_AUTH_TOKEN
//
// Optional:
//   - TWILIO_PHONE_NUMBER (default +13022716778)
//   - TWILIO_API_BASE_URL (default https://api.twilio.com/2010-04-01)
//   - TWILIO_HTTP_TIMEOUT (default 10s)
//   - SMS_POLL_INTERVAL (default 2s)
//   - SMS_MAX_ATTEMPTS (default 10)
//   - LOG_LEVEL (default info)
//
// The resulting Config is never mutated after Load returns.
package config
