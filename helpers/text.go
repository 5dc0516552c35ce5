package helpers

import (
	"net/mail"
	"strings"

	"github.com/Gravitalia/forum/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.English)
	title = cases.Title(language.English, cases.Compact)
)

// Normalize lower-cases and trims a tag name or a search term,
// collapsing inner whitespace
func Normalize(s string) string {
	return lower.String(strings.Join(strings.Fields(s), " "))
}

// TagName gives the display form of a tag, "go   routines" becomes "Go Routines"
func TagName(s string) string {
	return title.String(Normalize(s))
}

// VoteType maps "upvote", "UpVote"... onto the vote kinds,
// returning "" when unknown
func VoteType(s string) string {
	switch Normalize(s) {
	case "upvote", "up":
		return model.UpVote
	case "downvote", "down":
		return model.DownVote
	}

	return ""
}

// NormalizeEmail trims and lower-cases an email and reports
// whether it is well formed
func NormalizeEmail(s string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(s))
	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return "", false
	}

	return email, true
}
