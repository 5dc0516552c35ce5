package helpers

import "github.com/google/uuid"

// Generate returns a new random identifier
func Generate() string {
	return uuid.NewString()
}
