package model

import "time"

// Announcement is a message from an admin shown on the home page
type Announcement struct {
	Id          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorName  string    `json:"authorName"`
	AuthorImage string    `json:"authorImage"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AnnouncementBody is the body used to publish an announcement
type AnnouncementBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
