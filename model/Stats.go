package model

// Stats struct defines the forum counters
type Stats struct {
	TotalPosts    int64 `json:"totalPosts"`
	TotalComments int64 `json:"totalComments"`
	TotalUsers    int64 `json:"totalUsers"`
	TotalTags     int64 `json:"totalTags,omitempty"`
}

// Search is a recorded search term
type Search struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}
