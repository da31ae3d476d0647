package notification

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// Message is one notification to deliver.
type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

type NotificationClient struct {
	sg        *discordgo.Session
	channelID string
}

// NewNotificationClient opens a Discord session for scan notifications.
func NewNotificationClient(token, channelID string) (*NotificationClient, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token not configured")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel id not configured")
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &NotificationClient{sg: sg, channelID: channelID}, nil
}

func (c *NotificationClient) getSeverityColor(severity string) int {
	switch severity {
	case "critical":
		return 0x8B0000
	case "high":
		return 0xFF0000
	case "medium":
		return 0xFF8C00
	case "low":
		return 0xFFD700
	case "info":
		return 0x00BFFF
	default:
		return 0x808080
	}
}

func (c *NotificationClient) Send(msg Message) error {
	if c.sg == nil {
		return fmt.Errorf("discord client not initialized")
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       c.getSeverityColor(msg.Severity),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		fields := make([]*discordgo.MessageEmbedField, 0, len(msg.Fields))
		for key, value := range msg.Fields {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   key,
				Value:  value,
				Inline: true,
			})
		}
		embed.Fields = fields
	}

	_, err := c.sg.ChannelMessageSendEmbed(c.channelID, embed)
	return err
}

// SendFindingAlert reports one discovered finding.
func (c *NotificationClient) SendFindingAlert(target string, f *aiptx.Finding) error {
	return c.Send(Message{
		Title:       fmt.Sprintf("New %s finding", f.Severity),
		Description: f.Value,
		Severity:    string(f.Severity),
		Fields: map[string]string{
			"Target": target,
			"Type":   string(f.Type),
			"Phase":  f.Phase,
			"Tool":   f.Tool,
		},
		Timestamp: f.DiscoveredAt,
	})
}

// SendScanComplete reports a terminal job state.
func (c *NotificationClient) SendScanComplete(target string, job aiptx.ScanJob) error {
	severity := "info"
	description := fmt.Sprintf("Scan finished with %d findings", job.FindingsCount)
	if job.Status == aiptx.StatusError {
		severity = "high"
		description = fmt.Sprintf("Scan failed: %s", job.Error)
	}

	return c.Send(Message{
		Title:       fmt.Sprintf("Scan %s %s", job.ID, job.Status),
		Description: description,
		Severity:    severity,
		Fields: map[string]string{
			"Target": target,
		},
	})
}

func (c *NotificationClient) Close() error {
	if c.sg != nil {
		return c.sg.Close()
	}
	return nil
}
