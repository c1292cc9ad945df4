package model

// Identity is the authenticated caller as established by the web layer.
// The mail core uses only the email address; no other claims are consulted.
type Identity struct {
	Email string `json:"email"`
}
