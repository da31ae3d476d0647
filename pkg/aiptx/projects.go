package aiptx

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, data *ProjectCreate) (*Project, error) {
	body, err := c.send(ctx, resty.MethodPost, "/projects", data)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := c.decode("/projects", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject returns a project by id.
func (c *Client) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	if err := c.get(ctx, fmt.Sprintf("/projects/%d", id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject replaces a project's attributes.
func (c *Client) UpdateProject(ctx context.Context, id int64, data *ProjectCreate) (*Project, error) {
	path := fmt.Sprintf("/projects/%d", id)
	body, err := c.send(ctx, resty.MethodPut, path, data)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := c.decode(path, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	_, err := c.send(ctx, resty.MethodDelete, fmt.Sprintf("/projects/%d", id), nil)
	return err
}
