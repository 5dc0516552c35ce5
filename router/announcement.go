package router

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Gravitalia/forum/model"
)

func (r *Router) ListAnnouncements(w http.ResponseWriter, req *http.Request) {
	announcements, err := r.DB.ListAnnouncements(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}

	writeJSON(w, http.StatusOK, announcements)
}

func (r *Router) CountAnnouncements(w http.ResponseWriter, req *http.Request) {
	count, err := r.DB.CountAnnouncements(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidQuery)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// CreateAnnouncement publishes an announcement signed by the admin
func (r *Router) CreateAnnouncement(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.AnnouncementBody
	if !decodeBody(w, req, &body) {
		return
	}

	body.Title = strings.TrimSpace(body.Title)
	body.Description = strings.TrimSpace(body.Description)
	if body.Title == "" || body.Description == "" ||
		utf8.RuneCountInString(body.Title) > maxTitleLength ||
		utf8.RuneCountInString(body.Description) > maxDescriptionLength {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	id, err := r.DB.CreateAnnouncement(req.Context(), user, body)
	if err != nil {
		r.storeError(w, err, ErrorInvalidUser)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}
