package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartcanteen/canteen-backend/api/middleware"
	"github.com/smartcanteen/canteen-backend/api/validators"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}

func currentCanteenID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CanteenIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "canteen context missing")
	}
	canteenID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id")
	}
	return canteenID, nil
}

func pathUUID(r *http.Request, param, field string) (uuid.UUID, error) {
	return validators.ParsePathUUID(strings.TrimSpace(chi.URLParam(r, param)), field)
}
