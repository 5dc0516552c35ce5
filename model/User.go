package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	BadgeBronze = "bronze"
	BadgeGold   = "gold"
)

// BronzePostLimit is the number of posts a user without
// membership is allowed to create
const BronzePostLimit = 5

// User defines how a member is stored and sent
type User struct {
	Id        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo"`
	Role      string    `json:"role"`
	Badge     string    `json:"badge"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user can use moderation routes
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanPost reports whether a user who already created count
// posts may create another one
func (u User) CanPost(count int64) bool {
	return u.Badge == BadgeGold || count < BronzePostLimit
}

// UserBody is the body used to register a user
type UserBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

// ContributorsLimit is the size of the top contributors board
const ContributorsLimit = 5

// Contributor is a user ranked by number of posts
type Contributor struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Photo     string `json:"photo"`
	Badge     string `json:"badge"`
	PostCount int64  `json:"postCount"`
}
