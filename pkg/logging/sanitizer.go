// Package logging holds helpers that make values safe to hand to zap.
package logging

import (
	"net/url"
	"regexp"
)

const (
	// MaxStatementLogLength is the maximum length of a statement to log.
	MaxStatementLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in key/value DSNs.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host inside free text.
	credentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)
)

// SanitizeConnectionString removes the password from a database URL or DSN.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), RedactedText)
		}
		q := u.Query()
		if q.Has("password") {
			q.Set("password", RedactedText)
			u.RawQuery = q.Encode()
		}
		// url.String would escape the brackets of the placeholder.
		out, _ := url.PathUnescape(u.String())
		return out
	}

	return passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
}

// SanitizeError renders an error with any embedded credentials removed.
// pgx includes the DSN in some connection errors.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	return credentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// TruncateStatement shortens a SQL statement for log output.
func TruncateStatement(stmt string) string {
	if len(stmt) <= MaxStatementLogLength {
		return stmt
	}
	return stmt[:MaxStatementLogLength] + "..."
}
