package router

import (
	"errors"
	"net/http"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
)

// Subscribe adds an email to the newsletter
func (r *Router) Subscribe(w http.ResponseWriter, req *http.Request) {
	var body model.EmailBody
	if !decodeBody(w, req, &body) {
		return
	}

	email, ok := helpers.NormalizeEmail(body.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidEmail)
		return
	}

	if err := r.DB.Subscribe(req.Context(), email); errors.Is(err, database.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, ErrorAlreadySubscribed)
		return
	} else if err != nil {
		r.storeError(w, err, ErrorInvalidEmail)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": OkSubscribed})
}
