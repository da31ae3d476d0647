package simulator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
)

// progressData mirrors the progress event payload on the wire.
type progressData struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
}

type errorData struct {
	Message string `json:"message"`
}

// phasesFor expands a scan request into the phases the simulation walks.
func phasesFor(req aiptx.ScanRequest) []string {
	if len(req.Phases) > 0 {
		return req.Phases
	}
	switch req.Mode {
	case aiptx.ModeQuick:
		return []string{"recon"}
	case aiptx.ModeFull:
		return []string{"recon", "enum", "scan", "exploit"}
	default:
		return []string{"recon", "enum", "scan"}
	}
}

// cannedFindings returns the simulated discoveries for one phase.
func cannedFindings(req aiptx.ScanRequest, phase string) []aiptx.Finding {
	now := time.Now()
	mk := func(t aiptx.FindingType, value string, sev aiptx.Severity, tool string) aiptx.Finding {
		return aiptx.Finding{
			ID:           uuid.New().String(),
			Type:         t,
			Value:        value,
			Severity:     sev,
			Phase:        phase,
			Tool:         tool,
			DiscoveredAt: now,
		}
	}

	switch phase {
	case "recon":
		return []aiptx.Finding{
			mk(aiptx.FindingHost, req.Target, aiptx.SeverityInfo, "subfinder"),
			mk(aiptx.FindingPort, "22/tcp", aiptx.SeverityInfo, "nmap"),
			mk(aiptx.FindingPort, "443/tcp", aiptx.SeverityInfo, "nmap"),
		}
	case "enum":
		return []aiptx.Finding{
			mk(aiptx.FindingService, "nginx/1.18.0", aiptx.SeverityLow, "httpx"),
			mk(aiptx.FindingPath, "/admin", aiptx.SeverityMedium, "ffuf"),
		}
	case "scan":
		return []aiptx.Finding{
			mk(aiptx.FindingVuln, fmt.Sprintf("CVE-2021-41773 on %s", req.Target), aiptx.SeverityHigh, "nuclei"),
		}
	case "exploit":
		if !req.Exploit {
			return nil
		}
		return []aiptx.Finding{
			mk(aiptx.FindingCredential, "admin:admin", aiptx.SeverityCritical, "hydra"),
		}
	default:
		return nil
	}
}

// runScan walks the simulated scan for one job: per-phase progress steps,
// canned findings, then the terminal complete event. tick controls how
// fast the simulation advances.
func (s *Server) runScan(jobID string, j *job, tick time.Duration) {
	defer j.closeSubs()

	started := time.Now()
	j.mu.Lock()
	j.state.Status = aiptx.StatusRunning
	j.state.StartedAt = &started
	j.mu.Unlock()

	phases := phasesFor(j.request)
	for i, phase := range phases {
		for _, pct := range []int{10, 40, 70, 100} {
			time.Sleep(tick)

			j.mu.Lock()
			j.state.Phase = phase
			j.state.Progress = pct
			j.mu.Unlock()

			j.publish("progress", progressData{Phase: phase, Percent: pct})

			if pct == 40 {
				for _, f := range cannedFindings(j.request, phase) {
					j.mu.Lock()
					j.findings = append(j.findings, f)
					j.state.FindingsCount = len(j.findings)
					j.mu.Unlock()

					j.publish("finding", f)
				}
			}
		}

		// Targets under fail.* abort after the first phase so the error
		// path can be exercised end to end.
		if i == 0 && strings.HasPrefix(j.request.Target, "fail.") {
			msg := fmt.Sprintf("simulated failure scanning %s", j.request.Target)

			j.mu.Lock()
			j.state.Status = aiptx.StatusError
			j.state.Error = msg
			j.mu.Unlock()

			j.publish("error", errorData{Message: msg})

			s.log.WithFields(logger.Fields{
				"job_id": jobID,
				"target": j.request.Target,
			}).Warn("Simulated scan failed")
			return
		}
	}

	completed := time.Now()
	j.mu.Lock()
	j.state.Status = aiptx.StatusCompleted
	j.state.Progress = 100
	j.state.CompletedAt = &completed
	final := j.state
	j.mu.Unlock()

	j.publish("complete", final)

	s.log.WithFields(logger.Fields{
		"job_id":   jobID,
		"target":   j.request.Target,
		"findings": final.FindingsCount,
	}).Info("Simulated scan completed")
}
