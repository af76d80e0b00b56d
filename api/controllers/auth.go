package controllers

import (
	"net/http"

	"github.com/piyawat/agencydesk-backend/api/responses"
	"github.com/piyawat/agencydesk-backend/api/validators"
	"github.com/piyawat/agencydesk-backend/internal/auth"
	pkgAuth "github.com/piyawat/agencydesk-backend/pkg/auth"
	"github.com/piyawat/agencydesk-backend/pkg/config"
	pkgerrors "github.com/piyawat/agencydesk-backend/pkg/errors"
	"github.com/piyawat/agencydesk-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer. On success the
// refresh token is written to an HTTP-only cookie; only the access token and
// the user travel in the body.
func AuthLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, pkgAuth.NewRefreshCookie(result.RefreshToken, cfg.JWT.RefreshTTL(), cfg.App.IsProd()))
		responses.WriteSuccess(w, result)
	}
}

// AuthRegister creates a new back-office account.
func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
