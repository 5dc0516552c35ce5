package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/model"
	"go.uber.org/zap"
)

// Every possible error list
const (
	ErrorAlreadyExists       = "Already exists"
	ErrorAlreadySubscribed   = "Email already subscribed"
	ErrorForbidden           = "Forbidden"
	ErrorInternalServerError = "Internal server error"
	ErrorInvalidBody         = "Invalid body"
	ErrorInvalidComment      = "Invalid comment"
	ErrorInvalidEmail        = "Invalid email"
	ErrorInvalidFeedback     = "Invalid feedback"
	ErrorInvalidPost         = "Invalid post"
	ErrorInvalidQuery        = "Invalid query"
	ErrorInvalidReport       = "Invalid report"
	ErrorInvalidTag          = "Invalid tag"
	ErrorInvalidToken        = "Invalid token"
	ErrorInvalidUser         = "Invalid user"
	ErrorInvalidVote         = "Invalid vote type"
	ErrorPaymentNotConfirmed = "Payment not confirmed"
	ErrorPaymentProvider     = "Payment provider unavailable"
	ErrorPostLimit           = "Post limit reached"
	ErrorTagExists           = "Tag already exists"
	ErrorTransactionUsed     = "Transaction already applied"
	ErrorUnableReadBody      = "Unable to read body"
	ErrorUnknownTag          = "Unknown tag"
	ErrorUserExists          = "User already exists"
)

// Every OK message reponse
const (
	Ok                = "OK"
	OkAlreadyAdmin    = "User is already an admin"
	OkDeletedComment  = "Comment deleted"
	OkDismissedReport = "Report dismissed"
	OkMadeAdmin       = "User is now an admin"
	OkMembership      = "Membership upgraded"
	OkSubscribed      = "Subscribed to the newsletter"
)

// Field sizes accepted from clients
const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
	maxCommentLength     = 2000
	maxBodySize          = 1 << 20
)

func Index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, Ok)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.RequestError{
		Error:   true,
		Message: message,
	})
}

// decodeBody reads the JSON body into v and answers the
// client itself when it cannot, returning false
func decodeBody(w http.ResponseWriter, req *http.Request, v any) bool {
	defer req.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorUnableReadBody)
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return false
	}

	return true
}

// pagination reads the 1-based page and the limit query
// parameters into SKIP/LIMIT values
func pagination(req *http.Request, defaultLimit, maxLimit int) (skip, limit int, ok bool) {
	page, limit := 1, defaultLimit

	query := req.URL.Query()
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		limit = n
	}

	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if limit > 0 && page-1 > math.MaxInt/limit {
		return 0, 0, false
	}

	return (page - 1) * limit, limit, true
}

// storeError turns a store error into a response, notFound
// is the message used for database.ErrNotFound
func (r *Router) storeError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, database.ErrUnknownTag):
		writeError(w, http.StatusBadRequest, ErrorUnknownTag)
	case errors.Is(err, database.ErrAlreadyExists):
		writeError(w, http.StatusConflict, ErrorAlreadyExists)
	case errors.Is(err, database.ErrPostLimit):
		writeError(w, http.StatusForbidden, ErrorPostLimit)
	default:
		r.Logger.Error("store request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorInternalServerError)
	}
}
