package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// redactedFields are attribute and struct field names whose values never
// reach a log line. Connection strings carry database and cache credentials.
var redactedFields = []string{
	"password", "Password",
	"secret", "token", "apiKey", "api_key",
	"accessToken", "access_token", "refreshToken", "refresh_token",
	"authorization", "Authorization", "cookie", "credentials",
	"dsn", "DSN",
}

// Header values that carry credentials.
var (
	jwtValue  = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	authValue = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)
)

// RedactOptions returns the masq options every logger applies.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(redactedFields)+4)
	for _, name := range redactedFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(jwtValue),
		masq.WithRegex(authValue),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr func redacting RedactOptions
// plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}
