package aiptx

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// StartScan submits a scan request and returns the initial job handle.
// The server acknowledges with status pending (or running if it started
// synchronously); it never returns a job without an id.
func (c *Client) StartScan(ctx context.Context, req *ScanRequest) (*ScanJob, error) {
	if req == nil || req.Target == "" {
		return nil, ErrInvalidTarget
	}

	body, err := c.send(ctx, resty.MethodPost, "/scan", req)
	if err != nil {
		return nil, err
	}

	var job ScanJob
	if err := c.decode("/scan", body, &job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, NewDecodeError("/scan", fmt.Errorf("server returned a job without an id"))
	}
	return &job, nil
}

// GetScanStatus polls the current state of a scan job.
func (c *Client) GetScanStatus(ctx context.Context, jobID string) (*ScanJob, error) {
	var job ScanJob
	if err := c.get(ctx, fmt.Sprintf("/scans/%s", jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
