package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/modconsole/internal/backend/service"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
	"github.com/aussiebroadwan/modconsole/pkg/httpx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// ServeHTTP handles GET /api/auth/user-info
//
//	@Summary		Get user information
//	@Description	Returns the profile of the authenticated user.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserInfo	"Profile"
//	@Failure		401	{object}	httpx.ErrorBody		"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorBody		"Internal server error"
//	@Router			/api/auth/user-info [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteBearerError(w, "missing subject")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted while the token was still valid.
			httpx.WriteBearerError(w, "unknown user")
			return
		}
		log.Warn("failed to load user", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserInfo{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
		Bio:         user.Bio,
		IsVerified:  user.Verified,
	})
}
