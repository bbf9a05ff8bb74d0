package pinboard

import (
	"context"
	"fmt"
)

type resultResponse struct {
	Result string `json:"result"`
}

// AccessToken fetches the API token for login. The credentials travel as URL
// user-info, which net/http sends as basic auth; c.Credentials is not used.
func (c *Client) AccessToken(ctx context.Context, login Login) (string, error) {
	if err := validate.Struct(login); err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w: %v", ErrInvalidRequest, err)
	}
	ep, _ := OpAccessToken.endpoint()

	body, err := c.do(ctx, OpAccessToken, ep, nil, &login)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}

	var resp resultResponse
	if err := decodeJSON(OpAccessToken, body, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	if resp.Result == "" {
		return "", fmt.Errorf("failed to fetch access token: %w: %s: empty result", ErrDecode, OpAccessToken)
	}
	return resp.Result, nil
}

// Secret returns the user's secret RSS key, used to read private feeds.
func (c *Client) Secret(ctx context.Context) (string, error) {
	var resp resultResponse
	if err := c.call(ctx, OpSecret, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch RSS secret: %w", err)
	}
	return resp.Result, nil
}
