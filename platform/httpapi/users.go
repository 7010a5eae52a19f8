package httpapi

import (
	"context"
	"net/http"

	"github.com/walletgate/origo/domain"
)

const scimUserSchema = "urn:ietf:params:scim:schemas:core:2.0:User"

type scimName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type scimEmail struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type scimUser struct {
	Schemas     []string    `json:"schemas"`
	ID          string      `json:"id,omitempty"`
	ExternalID  string      `json:"externalId"`
	DisplayName string      `json:"displayName,omitempty"`
	Name        scimName    `json:"name"`
	Emails      []scimEmail `json:"emails"`
}

func toSCIM(u domain.User) scimUser {
	display := u.DisplayName
	if display == "" {
		display = u.GivenName + " " + u.FamilyName
	}
	return scimUser{
		Schemas:     []string{scimUserSchema},
		ExternalID:  u.ExternalID,
		DisplayName: display,
		Name:        scimName{GivenName: u.GivenName, FamilyName: u.FamilyName},
		Emails:      []scimEmail{{Value: u.Email, Type: "work", Primary: true}},
	}
}

func fromSCIM(s scimUser) *domain.User {
	email := ""
	if len(s.Emails) > 0 {
		email = s.Emails[0].Value
	}
	return &domain.User{
		ID:          s.ID,
		ExternalID:  s.ExternalID,
		Email:       email,
		DisplayName: s.DisplayName,
		GivenName:   s.Name.GivenName,
		FamilyName:  s.Name.FamilyName,
	}
}

// CreateUser registers a user in SCIM v2 format. A user must exist before a
// pass can be issued for them.
func (c *Client) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	var created scimUser
	if err := c.do(ctx, http.MethodPost, "/user", toSCIM(user), &created, "user", ""); err != nil {
		return nil, err
	}
	return fromSCIM(created), nil
}

// GetUser fetches a user record by platform id.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var got scimUser
	if err := c.do(ctx, http.MethodGet, "/user/"+userID, nil, &got, "user", userID); err != nil {
		return nil, err
	}
	return fromSCIM(got), nil
}

// DeleteUser removes a user; the platform also invalidates their passes.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+userID, nil, nil, "user", userID)
}
