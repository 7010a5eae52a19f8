package httpapi

import (
	"context"
	"net/http"

	"github.com/walletgate/origo/domain"
)

type createPassRequest struct {
	UserID         string `json:"userId"`
	PassTemplateID string `json:"passTemplateId"`
}

type patchPassRequest struct {
	Status domain.PassStatus `json:"status"`
}

// CreatePass allocates a new pass for an existing user. The platform assigns
// the id and any template-defined credential descriptors.
func (c *Client) CreatePass(ctx context.Context, userID, passTemplateID string) (*domain.Pass, error) {
	var pass domain.Pass
	body := createPassRequest{UserID: userID, PassTemplateID: passTemplateID}
	if err := c.do(ctx, http.MethodPost, "/pass", body, &pass, "pass", ""); err != nil {
		return nil, err
	}
	return &pass, nil
}

// GetPass fetches the current pass representation.
func (c *Client) GetPass(ctx context.Context, passID string) (*domain.Pass, error) {
	var pass domain.Pass
	if err := c.do(ctx, http.MethodGet, "/pass/"+passID, nil, &pass, "pass", passID); err != nil {
		return nil, err
	}
	return &pass, nil
}

// IssuanceToken generates a fresh one-time provisioning secret. Every call
// may produce a distinct token value for the same pass.
func (c *Client) IssuanceToken(ctx context.Context, passID string) (*domain.IssuanceToken, error) {
	var token domain.IssuanceToken
	if err := c.do(ctx, http.MethodGet, "/pass/"+passID+"/issuanceToken", nil, &token, "pass", passID); err != nil {
		return nil, err
	}
	token.PassID = passID
	return &token, nil
}

// UpdatePassStatus patches the lifecycle status (SUSPENDED or ACTIVE).
func (c *Client) UpdatePassStatus(ctx context.Context, passID string, status domain.PassStatus) (*domain.Pass, error) {
	var pass domain.Pass
	body := patchPassRequest{Status: status}
	if err := c.do(ctx, http.MethodPatch, "/pass/"+passID, body, &pass, "pass", passID); err != nil {
		return nil, err
	}
	return &pass, nil
}

// DeletePass removes the pass permanently.
func (c *Client) DeletePass(ctx context.Context, passID string) error {
	return c.do(ctx, http.MethodDelete, "/pass/"+passID, nil, nil, "pass", passID)
}
