// Package validator provides input validation and sanitization functions
// for the CraftLink backend security layer.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidPhone = errors.New("invalid phone number format")
	ErrInputTooLong = errors.New("input exceeds maximum length")
	ErrEmptyInput   = errors.New("input cannot be empty")
)

// MaxMessageLength is the cap applied to chat message bodies after sanitization
const MaxMessageLength = 4000

// Regex patterns for validation
var (
	// E.164: leading +, country code 1-9, 8 to 15 digits total
	phoneRegex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

	// Characters stripped from phone input before validation
	phoneNoiseRegex = regexp.MustCompile(`[\s\-().]`)

	// Go's RE2 engine has no backreferences, so the `</\1>` form is expanded
	// into one alternative per tag with the matching closer spelled out.
	scriptStyleRegex = regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>|<style[^>]*>[\s\S]*?</style>`)
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
)

// NormalizePhone normalizes a phone number to E.164 for storage and lookup.
// Separators are stripped and a 00 international prefix is rewritten to +.
// Returns the normalized number or ErrInvalidPhone.
func NormalizePhone(phone string) (string, error) {
	phone = phoneNoiseRegex.ReplaceAllString(strings.TrimSpace(phone), "")

	if phone == "" {
		return "", ErrEmptyInput
	}

	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}

	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// StripHTML removes HTML tags from a string
func StripHTML(input string) string {
	// Remove script and style elements
	input = scriptStyleRegex.ReplaceAllString(input, "")

	// Remove HTML tags
	input = htmlTagRegex.ReplaceAllString(input, " ")

	// Decode common HTML entities
	input = strings.ReplaceAll(input, "&nbsp;", " ")
	input = strings.ReplaceAll(input, "&amp;", "&")
	input = strings.ReplaceAll(input, "&lt;", "<")
	input = strings.ReplaceAll(input, "&gt;", ">")
	input = strings.ReplaceAll(input, "&quot;", `"`)
	input = strings.ReplaceAll(input, "&#39;", "'")

	return input
}

// SanitizeMessageBody prepares a chat message body for storage: strips HTML,
// drops control characters, trims whitespace, and enforces the length cap.
func SanitizeMessageBody(body string) string {
	body = StripHTML(body)

	// Remove control characters (ASCII 0-31 and 127), keep newlines and tabs
	body = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, body)

	body = strings.TrimSpace(body)

	if utf8.RuneCountInString(body) > MaxMessageLength {
		runes := []rune(body)
		body = string(runes[:MaxMessageLength])
	}

	return body
}

// Snippet collapses whitespace and truncates text for a conversation preview
func Snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")

	if max > 3 && utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		text = string(runes[:max-3]) + "..."
	}

	return text
}

// Pagination constants
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeFilename removes dangerous characters from filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	// Remove path separators to prevent path traversal
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")

	// Remove null bytes
	filename = strings.ReplaceAll(filename, "\x00", "")

	// Remove control characters (ASCII 0-31 and 127)
	filename = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, filename)

	// Trim whitespace
	filename = strings.TrimSpace(filename)

	// Limit length to 255 characters (common filesystem limit)
	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	// Fallback for empty filename
	if filename == "" {
		return "unnamed"
	}

	return filename
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Enforce maximum length if specified
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
