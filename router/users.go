package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
	"go.uber.org/zap"
)

// CreateUser registers the user the identity provider just
// signed in, an already known email is not an error
func (r *Router) CreateUser(w http.ResponseWriter, req *http.Request) {
	var body model.UserBody
	if !decodeBody(w, req, &body) {
		return
	}

	email, ok := helpers.NormalizeEmail(body.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidEmail)
		return
	}

	id, err := r.DB.CreateUser(req.Context(), model.User{
		Name:  strings.TrimSpace(body.Name),
		Email: email,
		Photo: body.Photo,
	})
	if errors.Is(err, database.ErrAlreadyExists) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    ErrorUserExists,
			"insertedId": nil,
		})
		return
	} else if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	r.invalidate(database.KeyPublicStats)

	writeJSON(w, http.StatusOK, map[string]any{"insertedId": id})
}

// CheckEmail tells whether an email belongs to a user
func (r *Router) CheckEmail(w http.ResponseWriter, req *http.Request, _ model.User) {
	email, ok := helpers.NormalizeEmail(req.URL.Query().Get("email"))
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidEmail)
		return
	}

	user, err := r.DB.GetUserByEmail(req.Context(), email)
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false, "user": nil})
		return
	} else if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "user": user})
}

// ListUsers searches users by name or email
func (r *Router) ListUsers(w http.ResponseWriter, req *http.Request, _ model.User) {
	skip, limit, ok := pagination(req, 10, 100)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidQuery)
		return
	}

	users, total, err := r.DB.ListUsers(req.Context(), helpers.Normalize(req.URL.Query().Get("search")), skip, limit)
	if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}
	if users == nil {
		users = []model.User{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users, "totalUsers": total})
}

// MakeAdmin grants the admin role
func (r *Router) MakeAdmin(w http.ResponseWriter, req *http.Request, _ model.User) {
	modified, err := r.DB.MakeAdmin(req.Context(), req.PathValue("id"))
	if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	if !modified {
		writeJSON(w, http.StatusOK, map[string]any{"modifiedCount": 0, "message": OkAlreadyAdmin})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"modifiedCount": 1, "message": OkMadeAdmin})
}

// Membership records a paid checkout and upgrades the caller
// to the gold badge
func (r *Router) Membership(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.MembershipBody
	if !decodeBody(w, req, &body) {
		return
	}

	email, ok := helpers.NormalizeEmail(body.Email)
	if !ok || strings.TrimSpace(body.TransactionId) == "" {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}
	if email != user.Email {
		writeError(w, http.StatusForbidden, ErrorForbidden)
		return
	}

	if r.Payments != nil {
		if err := r.Payments.Verify(req.Context(), body.TransactionId, body.Amount, body.Currency); errors.Is(err, helpers.ErrPaymentNotConfirmed) {
			writeError(w, http.StatusPaymentRequired, ErrorPaymentNotConfirmed)
			return
		} else if err != nil {
			r.Logger.Error("payment verification failed", zap.String("transaction", body.TransactionId), zap.Error(err))
			writeError(w, http.StatusBadGateway, ErrorPaymentProvider)
			return
		}
	}

	err := r.DB.ApplyMembership(req.Context(), model.Payment{
		TransactionId: body.TransactionId,
		Email:         user.Email,
		Amount:        body.Amount,
		Currency:      strings.ToLower(body.Currency),
	})
	if errors.Is(err, database.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, ErrorTransactionUsed)
		return
	} else if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	r.invalidate(database.KeyTopContributors)
	r.Events.Publish("membership", model.Message{
		Type: "membership",
		From: user.Email,
		To:   "membership",
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": OkMembership})
}

// Token hands an access token for a registered email
func (r *Router) Token(w http.ResponseWriter, req *http.Request) {
	var body model.EmailBody
	if !decodeBody(w, req, &body) {
		return
	}

	email, ok := helpers.NormalizeEmail(body.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidEmail)
		return
	}

	if _, err := r.DB.GetUserByEmail(req.Context(), email); err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	token, err := r.Tokens.CreateToken(email)
	if err != nil {
		r.Logger.Error("cannot create token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// userEmail returns the email query parameter, or the caller's
// own email when absent. Only admins may look at someone else.
func userEmail(req *http.Request, user model.User) (string, int) {
	raw := req.URL.Query().Get("email")
	if raw == "" {
		return user.Email, 0
	}

	email, ok := helpers.NormalizeEmail(raw)
	if !ok {
		return "", http.StatusBadRequest
	}
	if email != user.Email && !user.IsAdmin() {
		return "", http.StatusForbidden
	}

	return email, 0
}
