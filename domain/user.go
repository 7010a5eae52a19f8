package domain

import "time"

// User is the platform's SCIM v2 user record. The credential lifecycle only
// needs the opaque ID; the remaining fields exist for the user management
// passthrough.
type User struct {
	ID           string    `json:"id,omitempty"`
	ExternalID   string    `json:"externalId"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	GivenName    string    `json:"givenName,omitempty"`
	FamilyName   string    `json:"familyName,omitempty"`
	CreatedAt    time.Time `json:"created,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
}
