package model

import "time"

// Payment is a membership purchase confirmed by the checkout provider
type Payment struct {
	TransactionId string    `json:"transactionId"`
	Email         string    `json:"email"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaidAt        time.Time `json:"paidAt"`
}

// MembershipBody is sent once the hosted checkout succeeded
type MembershipBody struct {
	Email         string  `json:"email"`
	TransactionId string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// EmailBody is used by routes that only need an email
type EmailBody struct {
	Email string `json:"email"`
}
