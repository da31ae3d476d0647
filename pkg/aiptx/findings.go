package aiptx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListFindings returns findings across projects, optionally filtered.
func (c *Client) ListFindings(ctx context.Context, filter *FindingsFilter) ([]Finding, error) {
	path := "/findings"
	if filter != nil {
		params := url.Values{}
		if filter.ProjectID > 0 {
			params.Add("project_id", strconv.FormatInt(filter.ProjectID, 10))
		}
		if filter.Severity != "" {
			params.Add("severity", string(filter.Severity))
		}
		if filter.Type != "" {
			params.Add("type", string(filter.Type))
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var findings []Finding
	if err := c.get(ctx, path, &findings); err != nil {
		return nil, err
	}
	return findings, nil
}

// GetProjectFindings returns all findings for one project.
func (c *Client) GetProjectFindings(ctx context.Context, projectID int64) ([]Finding, error) {
	var findings []Finding
	if err := c.get(ctx, fmt.Sprintf("/projects/%d/findings", projectID), &findings); err != nil {
		return nil, err
	}
	return findings, nil
}

// GetFinding returns a finding by id.
func (c *Client) GetFinding(ctx context.Context, id string) (*Finding, error) {
	var finding Finding
	if err := c.get(ctx, fmt.Sprintf("/findings/%s", id), &finding); err != nil {
		return nil, err
	}
	return &finding, nil
}
