package router

import (
	"net/http"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/model"
)

// PublicStats returns the forum counters shown on the home page
func (r *Router) PublicStats(w http.ResponseWriter, req *http.Request) {
	var stats model.Stats
	if r.Cache.GetJSON(database.KeyPublicStats, &stats) {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	seen := r.generation(database.KeyPublicStats)
	stats, err := r.DB.Stats(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}
	stats.TotalTags = 0

	r.fill(database.KeyPublicStats, seen, stats)
	writeJSON(w, http.StatusOK, stats)
}

// AdminStats is PublicStats with the tag count, never cached
func (r *Router) AdminStats(w http.ResponseWriter, req *http.Request, _ model.User) {
	stats, err := r.DB.Stats(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// TopContributors ranks users by number of posts
func (r *Router) TopContributors(w http.ResponseWriter, req *http.Request) {
	var contributors []model.Contributor
	if r.Cache.GetJSON(database.KeyTopContributors, &contributors) {
		writeJSON(w, http.StatusOK, contributors)
		return
	}

	seen := r.generation(database.KeyTopContributors)
	contributors, err := r.DB.TopContributors(req.Context(), model.ContributorsLimit)
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}

	r.fill(database.KeyTopContributors, seen, contributors)
	writeJSON(w, http.StatusOK, contributors)
}
