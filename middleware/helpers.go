package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/session"
)

type contextKey string

const (
	adminContextKey   contextKey = "admin"
	bindingContextKey contextKey = "binding"
	courtContextKey   contextKey = "court"
)

func GetAdminFromContext(ctx context.Context) (*models.Admin, error) {
	admin, ok := ctx.Value(adminContextKey).(*models.Admin)
	if !ok || admin == nil {
		return nil, errors.New("admin not found in context")
	}
	return admin, nil
}

func GetBindingFromContext(ctx context.Context) (*session.Binding, error) {
	binding, ok := ctx.Value(bindingContextKey).(*session.Binding)
	if !ok || binding == nil {
		return nil, errors.New("court binding not found in context")
	}
	return binding, nil
}

// GetCourtFromContext returns the court as read when the binding was checked.
func GetCourtFromContext(ctx context.Context) (*models.Court, error) {
	court, ok := ctx.Value(courtContextKey).(*models.Court)
	if !ok || court == nil {
		return nil, errors.New("court not found in context")
	}
	return court, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
