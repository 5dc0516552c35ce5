package model

import "time"

const (
	ReportPending   = "pending"
	ReportDismissed = "dismissed"
)

// Feedbacks lists every reason a comment can be reported for
var Feedbacks = []string{"spam", "inappropriate", "hate_speech"}

// Report is a complaint about a comment
type Report struct {
	Id             string    `json:"_id"`
	CommentId      string    `json:"commentId"`
	CommentText    string    `json:"commentText"`
	CommenterEmail string    `json:"commenterEmail"`
	PostTitle      string    `json:"postTitle"`
	ReporterEmail  string    `json:"reporterEmail"`
	Feedback       string    `json:"feedback"`
	Status         string    `json:"status"`
	ReportedAt     time.Time `json:"reportedAt"`
}

// ReportBody is the body used to report a comment
type ReportBody struct {
	CommentId string `json:"commentId"`
	Feedback  string `json:"feedback"`
}
