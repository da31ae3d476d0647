package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

func TestWriteSarif(t *testing.T) {
	findings := []aiptx.Finding{
		{
			ID:           "f-1",
			Type:         aiptx.FindingVuln,
			Value:        "CVE-2021-41773",
			Description:  "path traversal in httpd",
			Severity:     aiptx.SeverityCritical,
			Tool:         "nuclei",
			DiscoveredAt: time.Now(),
		},
		{
			ID:       "f-2",
			Type:     aiptx.FindingPort,
			Value:    "22/tcp",
			Severity: aiptx.SeverityInfo,
			Tool:     "nmap",
		},
		{
			ID:       "f-3",
			Type:     aiptx.FindingPath,
			Value:    "/admin",
			Severity: aiptx.SeverityMedium,
			Tool:     "ffuf",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSarif(&buf, "example.com", findings))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)

	run := doc.Runs[0]
	assert.Equal(t, "AIPTX", run.Tool.Driver.Name)
	require.Len(t, run.Results, 3)

	assert.Equal(t, "aiptx/vuln", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Contains(t, run.Results[0].Message.Text, "CVE-2021-41773")
	assert.Contains(t, run.Results[0].Message.Text, "path traversal")

	assert.Equal(t, "none", run.Results[1].Level)
	assert.Equal(t, "warning", run.Results[2].Level)
}

func TestWriteSarifEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSarif(&buf, "example.com", nil))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "runs")
}

func TestToSarifLevel(t *testing.T) {
	assert.Equal(t, "error", toSarifLevel(aiptx.SeverityCritical))
	assert.Equal(t, "error", toSarifLevel(aiptx.SeverityHigh))
	assert.Equal(t, "warning", toSarifLevel(aiptx.SeverityMedium))
	assert.Equal(t, "note", toSarifLevel(aiptx.SeverityLow))
	assert.Equal(t, "none", toSarifLevel(aiptx.SeverityInfo))
	assert.Equal(t, "none", toSarifLevel("bogus"))
}
