package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-automator/internal/reconcile"
)

const (
	app       = "interview-automator"
	envPrefix = "INTERVIEW_AUTOMATOR"
)

type Config struct {
	Subsystem   string               `mapstructure:"subsystem"`
	Backend     string               `mapstructure:"backend"`
	DryRun      bool                 `mapstructure:"dry-run"`
	PhoneRegion string               `mapstructure:"phone-region"`
	Sheets      *SheetsConfig        `mapstructure:"sheets"`
	Tables      reconcile.Tables     `mapstructure:"tables"`
	Columns     reconcile.Columns    `mapstructure:"columns"`
	Thresholds  reconcile.Thresholds `mapstructure:"thresholds"`
	Matching    *MatchingConfig      `mapstructure:"matching"`
	Messaging   *MessagingConfig     `mapstructure:"messaging"`
	Schedule    *ScheduleConfig      `mapstructure:"schedule"`
	Safety      *SafetyConfig        `mapstructure:"safety"`
	Browser     *BrowserConfig       `mapstructure:"browser"`
	SQLite      *SQLiteConfig        `mapstructure:"sqlite"`
}

// SheetsConfig holds the spreadsheet links. The schedule and score tables
// live in the interviews spreadsheet.
type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials-file"`
	Form            string `mapstructure:"form"`
	Interviews      string `mapstructure:"interviews"`
	Legacy          string `mapstructure:"legacy"`
}

type MatchingConfig struct {
	Strategy string `mapstructure:"strategy"`
}

type MessagingConfig struct {
	Retries      int           `mapstructure:"retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	Delay        time.Duration `mapstructure:"delay"`
	Template     string        `mapstructure:"template"`
	TemplateFile string        `mapstructure:"template-file"`
	Sender       string        `mapstructure:"sender"`
	// InProcess drives the browser from this process. Hung sends can then
	// only be abandoned, not killed.
	InProcess bool `mapstructure:"in-process"`
}

type ScheduleConfig struct {
	Start             string        `mapstructure:"start"`
	BlockDuration     time.Duration `mapstructure:"block-duration"`
	InterviewDuration time.Duration `mapstructure:"interview-duration"`
	ConcurrencyLimit  int           `mapstructure:"concurrency-limit"`
}

type SafetyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
	Number  string `mapstructure:"number"`
	Name    string `mapstructure:"name"`
}

type BrowserConfig struct {
	DataDir     string        `mapstructure:"data-dir"`
	Headless    bool          `mapstructure:"headless"`
	LoadTimeout time.Duration `mapstructure:"load-timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-automator keeps the interview sheets in sync and notifies candidates of their slots",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("sheets.credentials-file", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		log.Fatalf("binding GOOGLE_APPLICATION_CREDENTIALS environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-automator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("dry-run", false, "print the writes instead of sending them to the sheets")
	rootCmd.PersistentFlags().StringP("subsystem", "s", "", "the subsystem to work on")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("dry-run", rootCmd.PersistentFlags().Lookup("dry-run"))
	viper.BindPFlag("subsystem", rootCmd.PersistentFlags().Lookup("subsystem"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := reconcile.DefaultConfig("")

	v.SetDefault("backend", "sheets")
	v.SetDefault("phone-region", defaults.PhoneRegion)

	v.SetDefault("tables.form", defaults.Tables.Form)
	v.SetDefault("tables.schedule", defaults.Tables.Schedule)
	v.SetDefault("tables.scores", defaults.Tables.Scores)
	v.SetDefault("tables.legacy", defaults.Tables.Legacy)

	v.SetDefault("columns.name", defaults.Columns.Name)
	v.SetDefault("columns.registration", defaults.Columns.Registration)
	v.SetDefault("columns.phone", defaults.Columns.Phone)
	v.SetDefault("columns.preference", defaults.Columns.Preference)
	v.SetDefault("columns.interview-time", defaults.Columns.InterviewTime)
	v.SetDefault("columns.sender", defaults.Columns.Sender)
	v.SetDefault("columns.appeared", defaults.Columns.Appeared)
	v.SetDefault("columns.overall", defaults.Columns.Overall)
	v.SetDefault("columns.remarks", defaults.Columns.Remarks)
	v.SetDefault("columns.interviewers", defaults.Columns.Interviewers)
	v.SetDefault("columns.legacy-registration", defaults.Columns.LegacyRegistration)
	v.SetDefault("columns.legacy-notified", "")
	v.SetDefault("columns.legacy-notifier", defaults.Columns.LegacyNotifier)

	v.SetDefault("thresholds.registry", defaults.Thresholds.Registry)
	v.SetDefault("thresholds.notified", defaults.Thresholds.Notified)
	v.SetDefault("thresholds.duplicates", defaults.Thresholds.Duplicates)
	v.SetDefault("thresholds.appearances", defaults.Thresholds.Appearances)
	v.SetDefault("thresholds.no-shows", defaults.Thresholds.NoShows)

	v.SetDefault("matching.strategy", "greedy")

	v.SetDefault("messaging.retries", 3)
	v.SetDefault("messaging.timeout", 2*time.Minute)
	v.SetDefault("messaging.retry-delay", 5*time.Second)
	v.SetDefault("messaging.delay", 10*time.Second)
	v.SetDefault("messaging.in-process", false)

	v.SetDefault("schedule.block-duration", 2*time.Hour)
	v.SetDefault("schedule.interview-duration", 15*time.Minute)
	v.SetDefault("schedule.concurrency-limit", 2)

	v.SetDefault("safety.enabled", true)
	v.SetDefault("safety.file", ".safety")

	v.SetDefault("browser.data-dir", ".data")
	v.SetDefault("browser.load-timeout", 2*time.Minute)

	v.SetDefault("sqlite.path", ".data/backup.db")
}

func initConfig() {
	// Config is not needed for version and help.
	if versionCmd.CalledAs() != "" {
		return
	}

	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("loading %s: %v", file, err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error. A missing default
	// config is fine: defaults and environment still apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// reconcileConfig converts the settings the heuristics need.
func (c *Config) reconcileConfig() *reconcile.Config {
	return &reconcile.Config{
		Subsystem:   c.Subsystem,
		PhoneRegion: c.PhoneRegion,
		Tables:      c.Tables,
		Columns:     c.Columns,
		Thresholds:  c.Thresholds,
	}
}
