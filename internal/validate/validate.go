// Package validate implements input-shape validation and defensive content
// sanitization for every tool operation (spec §4 ambient validation
// section). Unlike the teacher's struct-tag-driven validator, each field
// here has its own hand-written check: the spec's constraints are exact
// lengths and character classes per field rather than a generic rule set,
// and a handful of named functions read more directly than a struct-tag DSL
// for that shape of requirement.
package validate

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sharedcontext/server/internal/errors"
)

const (
	sessionIDMinLen = 8
	sessionIDMaxLen = 64
	purposeMaxLen   = 1000
	contentMaxLen   = 100000
	keyMinLen       = 1
	keyMaxLen       = 255
	metadataMaxLen  = 100000
)

var sanitizer = bluemonday.StrictPolicy()

// SessionID checks the 8-64 char, alphanumeric/-_ shape required of both
// client-supplied and server-generated session ids.
func SessionID(id string) *errors.AppError {
	if len(id) < sessionIDMinLen || len(id) > sessionIDMaxLen {
		return errors.InvalidInput("session_id must be between 8 and 64 characters")
	}
	for _, r := range id {
		if !isAlphanumeric(r) && r != '-' && r != '_' {
			return errors.InvalidInput("session_id may only contain letters, digits, '-', and '_'")
		}
	}
	return nil
}

// Purpose checks the non-empty, <=1000 char session purpose field.
func Purpose(purpose string) *errors.AppError {
	if strings.TrimSpace(purpose) == "" {
		return errors.InvalidInput("purpose must not be empty")
	}
	if len(purpose) > purposeMaxLen {
		return errors.InvalidInput("purpose must be at most 1000 characters")
	}
	return nil
}

// Content checks the non-empty, <=100,000 char message content field. The
// boundary is checked here, against the original string, before any
// sanitization runs — sanitization must never change whether a message at
// exactly the boundary is accepted.
func Content(content string) *errors.AppError {
	if content == "" {
		return errors.InvalidInput("content must not be empty")
	}
	if len(content) > contentMaxLen {
		return errors.InvalidInput("content must be at most 100,000 characters")
	}
	return nil
}

// Key checks the 1-255 char agent memory key field.
func Key(key string) *errors.AppError {
	if len(key) < keyMinLen || len(key) > keyMaxLen {
		return errors.InvalidInput("key must be between 1 and 255 characters")
	}
	return nil
}

// Metadata checks that a raw metadata JSON string, if present, is within a
// sane size bound before it is ever parsed or stored. Shape (valid JSON
// object) is checked by the caller, which already has the target struct.
func Metadata(metadata *string) *errors.AppError {
	if metadata == nil {
		return nil
	}
	if len(*metadata) > metadataMaxLen {
		return errors.InvalidInput("metadata must be at most 100,000 characters")
	}
	return nil
}

// Sanitize strips HTML/script content from free-form text (message content,
// metadata string values) before it is returned to any eventual renderer.
// It is defense in depth for the out-of-scope browser dashboard — it never
// runs before length validation and never changes a string's acceptance,
// only its returned contents.
func Sanitize(s string) string {
	return sanitizer.Sanitize(s)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
