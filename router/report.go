package router

import (
	"net/http"
	"slices"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/model"
)

// CreateReport flags a comment for the moderators
func (r *Router) CreateReport(w http.ResponseWriter, req *http.Request, user model.User) {
	var body model.ReportBody
	if !decodeBody(w, req, &body) {
		return
	}

	if body.CommentId == "" {
		writeError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	feedback := helpers.Normalize(body.Feedback)
	if !slices.Contains(model.Feedbacks, feedback) {
		writeError(w, http.StatusBadRequest, ErrorInvalidFeedback)
		return
	}

	id, err := r.DB.CreateReport(req.Context(), user.Email, body.CommentId, feedback)
	if err != nil {
		r.storeError(w, err, ErrorInvalidComment)
		return
	}

	r.Events.Publish("admins", model.Message{
		Type:      "comment_report",
		From:      user.Email,
		To:        "admins",
		Important: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

// ListReports returns every report, newest first
func (r *Router) ListReports(w http.ResponseWriter, req *http.Request, _ model.User) {
	reports, err := r.DB.ListReports(req.Context())
	if err != nil {
		r.storeError(w, err, ErrorInvalidReport)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// DeleteReport deletes the reported comment along with
// every report about it
func (r *Router) DeleteReport(w http.ResponseWriter, req *http.Request, _ model.User) {
	if err := r.DB.DeleteReportedComment(req.Context(), req.PathValue("id")); err != nil {
		r.storeError(w, err, ErrorInvalidReport)
		return
	}

	r.invalidate(database.KeyPublicStats)

	writeJSON(w, http.StatusOK, map[string]string{"message": OkDeletedComment})
}

// DismissReport keeps the comment and closes the report
func (r *Router) DismissReport(w http.ResponseWriter, req *http.Request, _ model.User) {
	if err := r.DB.DismissReport(req.Context(), req.PathValue("id")); err != nil {
		r.storeError(w, err, ErrorInvalidReport)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": OkDismissedReport})
}
