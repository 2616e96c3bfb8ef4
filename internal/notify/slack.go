// Package notify posts scan summaries to Slack so remediation owners see
// new findings without polling CI output.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/slack-go/slack"
	"github.com/spf13/viper"

	"vulnplan/internal/model"
	"vulnplan/internal/plan"
)

// Manager handles scan notifications. Disabled (all methods no-ops) when
// Slack is not configured.
type Manager struct {
	client    *slack.Client
	channelID string
	logger    *slog.Logger
}

// NewManager builds a manager from viper configuration and the
// SLACK_BOT_USER_TOKEN environment variable.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}

	if !viper.GetBool("notifications.slack.enabled") {
		return m
	}
	token := os.Getenv("SLACK_BOT_USER_TOKEN")
	if token == "" {
		logger.Warn("SLACK_BOT_USER_TOKEN not set, slack notifications disabled")
		return m
	}

	m.client = slack.New(token)
	m.channelID = viper.GetString("notifications.slack.channel")
	return m
}

// Enabled reports whether notifications will actually be sent.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// ScanComplete posts a summary of the plan and, when a previous plan
// existed, the delta since the last scan.
func (m *Manager) ScanComplete(ctx context.Context, p *model.RemediationPlan, delta *plan.Delta) error {
	if !m.Enabled() {
		return nil
	}

	msg := fmt.Sprintf("Scan of `%s` complete: %d findings, %.1fh estimated effort.",
		p.ProjectPath, p.FindingCount(), p.TotalEffortHours)
	for _, ph := range p.Phases {
		if len(ph.Findings) > 0 {
			msg += fmt.Sprintf("\n• %s: %d", ph.Tier, len(ph.Findings))
		}
	}
	if delta != nil {
		msg += fmt.Sprintf("\nSince last scan: %d new, %d unchanged, %d resolved.",
			len(delta.New), len(delta.Unchanged), len(delta.Resolved))
	}

	_, _, err := m.client.PostMessageContext(ctx, m.channelID,
		slack.MsgOptionText(msg, false))
	if err != nil {
		return fmt.Errorf("failed to post slack notification: %w", err)
	}
	return nil
}
