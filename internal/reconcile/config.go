package reconcile

import (
	"fmt"
	"strings"
)

// Config contains the settings shared by all heuristics.
type Config struct {
	Subsystem   string     `mapstructure:"subsystem"`
	PhoneRegion string     `mapstructure:"phone-region"`
	Tables      Tables     `mapstructure:"tables"`
	Columns     Columns    `mapstructure:"columns"`
	Thresholds  Thresholds `mapstructure:"thresholds"`
}

// Tables names the backing tables.
type Tables struct {
	Form     string `mapstructure:"form"`
	Schedule string `mapstructure:"schedule"`
	Scores   string `mapstructure:"scores"`
	Legacy   string `mapstructure:"legacy"`
}

// Columns names the columns the heuristics read and write. The identity
// columns are shared by the form, schedule and score tables.
type Columns struct {
	Name               string `mapstructure:"name"`
	Registration       string `mapstructure:"registration"`
	Phone              string `mapstructure:"phone"`
	Preference         string `mapstructure:"preference"`
	InterviewTime      string `mapstructure:"interview-time"`
	Sender             string `mapstructure:"sender"`
	Appeared           string `mapstructure:"appeared"`
	Overall            string `mapstructure:"overall"`
	Remarks            string `mapstructure:"remarks"`
	Interviewers       string `mapstructure:"interviewers"`
	LegacyRegistration string `mapstructure:"legacy-registration"`
	// LegacyNotified defaults to Notified_<subsystem>.
	LegacyNotified string `mapstructure:"legacy-notified"`
	LegacyNotifier string `mapstructure:"legacy-notifier"`
}

// Thresholds are normalized match cutoffs in [0,1]; a match must exceed them.
type Thresholds struct {
	Registry    float64 `mapstructure:"registry"`
	Notified    float64 `mapstructure:"notified"`
	Duplicates  float64 `mapstructure:"duplicates"`
	Appearances float64 `mapstructure:"appearances"`
	NoShows     float64 `mapstructure:"no-shows"`
}

// DefaultConfig returns the layout of the interview sheets.
func DefaultConfig(subsystem string) Config {
	return Config{
		Subsystem:   subsystem,
		PhoneRegion: "IN",
		Tables: Tables{
			Form:     "Form Responses 1",
			Schedule: "Interview Schedules",
			Scores:   "Interview Scores",
			Legacy:   "Old Automator",
		},
		Columns: Columns{
			Name:               "Full Name",
			Registration:       "Registration No.",
			Phone:              "WhatsApp Number",
			Preference:         "Subsystem Preference",
			InterviewTime:      "Interview Date/Time",
			Sender:             "WS Sender",
			Appeared:           "Appeared",
			Overall:            "Overall",
			Remarks:            "Remarks",
			Interviewers:       "Interviewers",
			LegacyRegistration: "Registration No. ",
			LegacyNotifier:     "MemberNotifier",
		},
		Thresholds: Thresholds{
			Registry:    0.82,
			Notified:    0.90,
			Duplicates:  0.90,
			Appearances: 0.90,
			NoShows:     0.90,
		},
	}
}

// Notified returns the legacy column holding the subsystem notification time.
func (c *Config) Notified() string {
	if c.Columns.LegacyNotified != "" {
		return c.Columns.LegacyNotified
	}
	return "Notified_" + c.Subsystem
}

func validThreshold(name string, v float64) error {
	if v < 0 || v >= 1 {
		return fmt.Errorf("%s threshold must be in [0,1), got %v", name, v)
	}
	return nil
}

func requireSubsystem(cfg *Config) error {
	if cfg == nil || strings.TrimSpace(cfg.Subsystem) == "" {
		return fmt.Errorf("subsystem is required")
	}
	return nil
}
