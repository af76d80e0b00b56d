package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/piyawat/agencydesk-backend/api/middleware"
	"github.com/piyawat/agencydesk-backend/api/responses"
	"github.com/piyawat/agencydesk-backend/internal/auth"
	pkgAuth "github.com/piyawat/agencydesk-backend/pkg/auth"
	"github.com/piyawat/agencydesk-backend/pkg/config"
	pkgerrors "github.com/piyawat/agencydesk-backend/pkg/errors"
	"github.com/piyawat/agencydesk-backend/pkg/logger"
)

// AuthRefresh mints a new access token from the refresh cookie. The refresh
// token is read from the cookie only; a token in the body is ignored. On
// verification failure the cookie is left untouched.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token := pkgAuth.ReadRefreshCookie(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing refresh token"))
			return
		}

		result, err := svc.Refresh(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout clears the refresh cookie. Idempotent: succeeds with or without
// an active session.
func AuthLogout(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, pkgAuth.ExpiredRefreshCookie(cfg.App.IsProd()))
		responses.WriteMessage(w, http.StatusOK, "Logged out")
	}
}

// AuthMe returns the authenticated user's profile. Runs behind the bearer
// auth middleware.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := svc.CurrentUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}
