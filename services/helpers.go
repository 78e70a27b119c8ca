package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/beach-tennis-live/repositories"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// storeError maps repository errors onto service errors, keeping the chain.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %w", notFound, err)
	case errors.Is(err, repositories.ErrWrite):
		return fmt.Errorf("%w: %w", ErrWrite, err)
	default:
		return err
	}
}

func validateDate(date string) error {
	if date == "" {
		return fmt.Errorf("%w: date is required", ErrValidationFailed)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidationFailed)
	}
	return nil
}

func validateClock(hhmm *string) error {
	if hhmm == nil {
		return nil
	}
	if _, err := time.Parse("15:04", *hhmm); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrValidationFailed)
	}
	return nil
}

// GetExtensionFromContentType maps an image content type to a file extension.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: unsupported image content type %q", ErrValidationFailed, contentType)
	}
}
