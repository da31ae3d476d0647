// Package report exports accumulated scan findings as SARIF so they can be
// fed into code-scanning dashboards and issue trackers.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

const toolURI = "https://github.com/aiptx/aiptx"

// WriteSarif renders the findings of one scan into a SARIF report.
func WriteSarif(w io.Writer, target string, findings []aiptx.Finding) error {
	reportSarif, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("AIPTX", toolURI)

	for _, f := range findings {
		ruleID := fmt.Sprintf("aiptx/%s", f.Type)
		rule := run.AddRule(ruleID).
			WithDescription(fmt.Sprintf("%s finding reported by %s", f.Type, f.Tool)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: toSarifLevel(f.Severity),
			})

		message := f.Value
		if f.Description != "" {
			message = fmt.Sprintf("%s: %s", f.Value, f.Description)
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(target)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(toSarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	reportSarif.AddRun(run)
	return reportSarif.PrettyWrite(w)
}

// SaveSarif writes the SARIF report to a file.
func SaveSarif(path, target string, findings []aiptx.Finding) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create sarif file: %w", err)
	}
	defer file.Close()

	return WriteSarif(file, target, findings)
}

func toSarifLevel(severity aiptx.Severity) string {
	switch severity {
	case aiptx.SeverityCritical, aiptx.SeverityHigh:
		return "error"
	case aiptx.SeverityMedium:
		return "warning"
	case aiptx.SeverityLow:
		return "note"
	default:
		return "none"
	}
}
