package router

import (
	"errors"
	"net/http"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
)

// ListTags returns every tag sorted by name
func (r *Router) ListTags(w http.ResponseWriter, req *http.Request) {
	var tags []model.Tag
	if r.Cache.GetJSON(database.KeyTags, &tags) {
		writeJSON(w, http.StatusOK, tags)
		return
	}

	seen := r.generation(database.KeyTags)
	tags, err := r.DB.ListTags(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidTag)
		return
	}

	r.fill(database.KeyTags, seen, tags)
	writeJSON(w, http.StatusOK, tags)
}

// CreateTags adds several tags at once, each name gets
// its own result
func (r *Router) CreateTags(w http.ResponseWriter, req *http.Request, _ model.User) {
	var body model.TagsBody
	if !decodeBody(w, req, &body) {
		return
	}

	if len(body.Names) == 0 {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	// tags created before a failure are kept
	defer r.invalidate(database.KeyTags)

	results := make([]model.TagResult, 0, len(body.Names))
	for _, name := range body.Names {
		if helpers.Normalize(name) == "" {
			results = append(results, model.TagResult{Name: name, Message: ErrorInvalidTag})
			continue
		}

		id, err := r.DB.CreateTag(req.Context(), name)
		switch {
		case errors.Is(err, database.ErrAlreadyExists):
			results = append(results, model.TagResult{Name: name, Message: ErrorTagExists})
		case err != nil:
			r.storeError(w, err, ErrorInvalidTag)
			return
		default:
			results = append(results, model.TagResult{Name: helpers.TagName(name), TagId: id})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
