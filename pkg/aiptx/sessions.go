package aiptx

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ListSessions returns all sessions for a project.
func (c *Client) ListSessions(ctx context.Context, projectID int64) ([]Session, error) {
	var sessions []Session
	if err := c.get(ctx, fmt.Sprintf("/projects/%d/sessions", projectID), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session under a project.
func (c *Client) CreateSession(ctx context.Context, projectID int64, data *SessionCreate) (*Session, error) {
	path := fmt.Sprintf("/projects/%d/sessions", projectID)
	body, err := c.send(ctx, resty.MethodPost, path, data)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.decode(path, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession returns a session by id.
func (c *Client) GetSession(ctx context.Context, id int64) (*Session, error) {
	var session Session
	if err := c.get(ctx, fmt.Sprintf("/sessions/%d", id), &session); err != nil {
		return nil, err
	}
	return &session, nil
}
