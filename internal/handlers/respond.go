package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evercare/carelink-api/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the domain error kinds onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound          *models.NotFoundError
		invalidState      *models.InvalidStateError
		invalidTransition *models.InvalidTransitionError
		invalidRule       *models.InvalidRuleError
	)
	switch {
	case errors.As(err, &notFound):
		http.Error(w, notFound.Error(), http.StatusNotFound)
	case errors.As(err, &invalidState):
		http.Error(w, invalidState.Error(), http.StatusConflict)
	case errors.As(err, &invalidTransition):
		http.Error(w, invalidTransition.Error(), http.StatusConflict)
	case errors.As(err, &invalidRule):
		http.Error(w, invalidRule.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
