package sdk

import (
	"context"
	"net/url"
)

// GetUserMe returns the authenticated user.
func (c *Client) GetUserMe(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/users/me", "/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// GetUser returns the user with resource name userName, e.g. "users/alice".
func (c *Client) GetUser(ctx context.Context, userName string) (*User, error) {
	if userName == "" {
		return nil, missing("user_name")
	}
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/{user}", resourcePath(userName), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListUsers returns every user, walking all pages.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.pages(ctx, nil, func(q url.Values) (string, error) {
		var page struct {
			Users         []User `json:"users"`
			NextPageToken string `json:"next_page_token"`
		}
		if err := c.get(ctx, "/users", "/users", q, &page); err != nil {
			return "", err
		}
		users = append(users, page.Users...)
		return page.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListTokens returns every API token of the authenticated user.
func (c *Client) ListTokens(ctx context.Context) ([]APIToken, error) {
	var tokens []APIToken
	err := c.pages(ctx, nil, func(q url.Values) (string, error) {
		var page struct {
			Tokens        []APIToken `json:"tokens"`
			NextPageToken string     `json:"next_page_token"`
		}
		if err := c.get(ctx, "/tokens", "/tokens", q, &page); err != nil {
			return "", err
		}
		tokens = append(tokens, page.Tokens...)
		return page.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetToken returns the token with resource name tokenName, e.g. "tokens/ci".
func (c *Client) GetToken(ctx context.Context, tokenName string) (*APIToken, error) {
	if tokenName == "" {
		return nil, missing("token_name")
	}
	var resp struct {
		Token APIToken `json:"token"`
	}
	if err := c.get(ctx, "/{token}", resourcePath(tokenName), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Token, nil
}

// ListUserMemberships returns the organization memberships of userName.
func (c *Client) ListUserMemberships(ctx context.Context, userName string) ([]Membership, error) {
	if userName == "" {
		return nil, missing("user_name")
	}
	var resp struct {
		Memberships []Membership `json:"memberships"`
	}
	if err := c.get(ctx, "/{user}/memberships", resourcePath(userName, "memberships"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Memberships, nil
}

// ListOrganizationMemberships returns the members of the organization with id organizationID.
func (c *Client) ListOrganizationMemberships(ctx context.Context, organizationID string) ([]Membership, error) {
	if organizationID == "" {
		return nil, missing("organization_id")
	}
	var resp struct {
		Memberships []Membership `json:"memberships"`
	}
	path := resourcePath("organizations/"+organizationID, "memberships")
	if err := c.get(ctx, "/organizations/{id}/memberships", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Memberships, nil
}
