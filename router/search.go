package router

import "net/http"

// PopularSearches returns the most searched terms
func (r *Router) PopularSearches(w http.ResponseWriter, req *http.Request) {
	_, limit, ok := pagination(req, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorInvalidQuery)
		return
	}

	searches, err := r.DB.PopularSearches(req.Context(), limit)
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}

	writeJSON(w, http.StatusOK, searches)
}
