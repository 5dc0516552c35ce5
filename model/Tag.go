package model

// Tag categorises posts
type Tag struct {
	Id   string `json:"_id"`
	Name string `json:"name"`
}

// TagsBody is the body used by admins to add tags
type TagsBody struct {
	Names []string `json:"names"`
}

// TagResult tells, for each requested name, either the
// created ID or why it was refused
type TagResult struct {
	Name    string `json:"name"`
	TagId   string `json:"tagId,omitempty"`
	Message string `json:"message,omitempty"`
}
