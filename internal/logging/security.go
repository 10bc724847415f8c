// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// AuditEvent represents a credential/key-lifecycle event for audit logging.
type AuditEvent struct {
	// Event is the type of event (e.g., "key_created", "key_unlocked", "key_exported").
	Event string
	// Storage is the storage definition name the event applies to.
	Storage string
	// KeyLabel is the well-known secret-store label for the key involved (sanitized).
	KeyLabel string
	// ExportID is the identifier of an export/import bundle, when applicable.
	ExportID string
	// Provider is the storage provider kind (filesystem, s3).
	Provider string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional sanitized details.
	Details map[string]string
}

// SecurityLogger provides secure logging for credential-lifecycle events.
// It automatically sanitizes sensitive data before logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new audit logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "secrets").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates an audit logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "secrets").Logger(),
	}
}

// LogEvent logs an audit event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *AuditEvent) {
	e := l.logger.Info().
		Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.Storage != "" {
		e = e.Str("storage", event.Storage)
	}
	if event.KeyLabel != "" {
		e = e.Str("key_label", SanitizeValue("key_label", event.KeyLabel))
	}
	if event.ExportID != "" {
		e = e.Str("export_id", event.ExportID)
	}
	if event.Provider != "" {
		e = e.Str("provider", event.Provider)
	}
	if event.Error != "" {
		e = e.Str("error", SanitizeError(event.Error))
	}

	e = addFieldPairs(e, event.Details)

	e.Msg("audit event")
}

// Debug logs a debug-level message through the audit logger.
func (l *SecurityLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info-level message through the audit logger.
func (l *SecurityLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warn-level message through the audit logger.
func (l *SecurityLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error-level message through the audit logger.
func (l *SecurityLogger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func addFieldPairs(e *zerolog.Event, details map[string]string) *zerolog.Event {
	for k, v := range details {
		e = e.Str(k, SanitizeValue(k, v))
	}
	return e
}

// ============================================================
// Pre-defined Audit Events
// ============================================================

// LogKeyCreated logs creation of a new encryption key for a storage definition.
func (l *SecurityLogger) LogKeyCreated(storage, keyLabel string) {
	l.LogEvent(&AuditEvent{
		Event:    "key_created",
		Storage:  storage,
		KeyLabel: keyLabel,
		Success:  true,
	})
}

// LogKeyUnlocked logs a successful or failed key-unlock attempt.
func (l *SecurityLogger) LogKeyUnlocked(storage, keyLabel string, success bool, errMsg string) {
	l.LogEvent(&AuditEvent{
		Event:    "key_unlocked",
		Storage:  storage,
		KeyLabel: keyLabel,
		Success:  success,
		Error:    errMsg,
	})
}

// LogKeyExported logs export of a storage definition's credential bundle.
func (l *SecurityLogger) LogKeyExported(storage, exportID string, success bool, errMsg string) {
	l.LogEvent(&AuditEvent{
		Event:    "key_exported",
		Storage:  storage,
		ExportID: exportID,
		Success:  success,
		Error:    errMsg,
	})
}

// LogKeyImported logs import of a storage definition's credential bundle.
func (l *SecurityLogger) LogKeyImported(storage, exportID string, success bool, errMsg string) {
	l.LogEvent(&AuditEvent{
		Event:    "key_imported",
		Storage:  storage,
		ExportID: exportID,
		Success:  success,
		Error:    errMsg,
	})
}

// LogCredentialRotated logs rotation of a provider credential.
func (l *SecurityLogger) LogCredentialRotated(storage, provider string) {
	l.LogEvent(&AuditEvent{
		Event:    "credential_rotated",
		Storage:  storage,
		Provider: provider,
		Success:  true,
	})
}

// LogStorageDefinitionCreated logs creation of a new storage definition.
func (l *SecurityLogger) LogStorageDefinitionCreated(storage, provider string) {
	l.LogEvent(&AuditEvent{
		Event:    "storage_definition_created",
		Storage:  storage,
		Provider: provider,
		Success:  true,
	})
}

// ============================================================
// Sanitization Functions
// ============================================================

// SanitizeToken masks a token, showing only first and last 4 characters.
// Example: "1234567890123456" -> "1234...3456"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeSessionID masks a session ID.
// Example: "abc123def456789" -> "abc1...6789"
func SanitizeSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 12 {
		return "***"
	}
	return sessionID[:4] + "..." + sessionID[len(sessionID)-4:]
}

// SanitizeUserID masks a user ID for privacy.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeUsername masks a username, keeping first 2 characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks an email address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}

	atIndex := strings.Index(email, "@")
	if atIndex <= 0 {
		return "***"
	}

	localPart := email[:atIndex]
	domain := email[atIndex:]

	if len(localPart) <= 2 {
		return "***" + domain
	}
	return localPart[:2] + "***" + domain
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(err string) string {
	// Remove potential secrets from error messages
	sensitivePatterns := []string{
		"password",
		"secret",
		"token",
		"key",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			// Generic error message
			return "credential error"
		}
	}

	// Truncate long errors
	return truncateString(err, 200)
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	lowerKey := strings.ToLower(key)

	// Check for sensitive key names
	sensitiveKeys := map[string]bool{
		"access_token":  true,
		"refresh_token": true,
		"id_token":      true,
		"token":         true,
		"password":      true,
		"secret":        true,
		"api_key":       true,
		"apikey":        true,
		"authorization": true,
		"bearer":        true,
		"cookie":        true,
		"session":       true,
		"session_id":    true,
		"sessionid":     true,
		"key_label":     true,
		"encryption_key": true,
	}

	if sensitiveKeys[lowerKey] {
		return SanitizeToken(value)
	}

	// Check for email-like values
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}

	return value
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
