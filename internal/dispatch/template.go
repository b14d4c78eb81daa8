package dispatch

import (
	"strings"
	"time"
)

// TimeLayout renders slot times as DD/MM/YYYY, hh:mm AM/PM.
const TimeLayout = "02/01/2006, 03:04 PM"

const (
	PlaceholderName      = "{{NAME}}"
	PlaceholderTime      = "{{TIME}}"
	PlaceholderSubsystem = "{{SUBSYSTEM}}"
)

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = `Hello {{NAME}},

Your interview for the {{SUBSYSTEM}} subsystem is scheduled on {{TIME}}.
Please reply to this message to confirm that you can make it.`

// Message is the data substituted into a template.
type Message struct {
	Name      string
	Time      time.Time
	Subsystem string
}

// Render substitutes the message into template.
func Render(template string, msg Message) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}

	return strings.NewReplacer(
		PlaceholderName, strings.TrimSpace(msg.Name),
		PlaceholderTime, msg.Time.Format(TimeLayout),
		PlaceholderSubsystem, strings.TrimSpace(msg.Subsystem),
	).Replace(template)
}
