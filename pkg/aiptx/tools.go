package aiptx

import "context"

// ListTools returns the security tools the server can run.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	if err := c.get(ctx, "/tools", &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// Health returns the server health status.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var health HealthStatus
	if err := c.get(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready reports whether the server is accepting requests.
func (c *Client) Ready(ctx context.Context) bool {
	_, err := c.send(ctx, "GET", "/health/ready", nil)
	return err == nil
}
