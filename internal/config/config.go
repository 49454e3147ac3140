package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the gts configuration, read from $XDG_CONFIG_HOME/gts/config.yaml.
type Config struct {
	Default DefaultConfig `yaml:"default"`
	GitLab  GitLabConfig  `yaml:"gitlab"`
	Log     LogConfig     `yaml:"log"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

// DefaultConfig holds the local side: Hamster and date parsing.
type DefaultConfig struct {
	DB            string   `yaml:"db"`
	DateFormats   []string `yaml:"date_formats"`
	IssueIDRegexp string   `yaml:"issue_id_regexp"`
	// NaturalDates accepts phrases such as "yesterday" after the formats.
	NaturalDates bool `yaml:"natural_dates"`
}

// GitLabConfig holds the remote side.
type GitLabConfig struct {
	URL       string        `yaml:"url"`
	ProjectID string        `yaml:"project_id"`
	Token     string        `yaml:"token"`
	ProxyURL  string        `yaml:"proxy_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LogConfig configures diagnostics. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

const (
	relPath   = "gts/config.yaml"
	envPrefix = "GTS"

	keyDB            = "default.db"
	keyDateFormats   = "default.date_formats"
	keyIssueIDRegexp = "default.issue_id_regexp"
	keyNaturalDates  = "default.natural_dates"
	keyGitLabURL     = "gitlab.url"
	keyProjectID     = "gitlab.project_id"
	keyToken         = "gitlab.token"
	keyProxyURL      = "gitlab.proxy_url"
	keyTimeout       = "gitlab.timeout"
	keyLogLevel      = "log.level"
	keyLogFile       = "log.file"
	keyLogMaxSize    = "log.max_size_mb"
	keyLogMaxBackups = "log.max_backups"
)

// ErrConfigCreated is returned by Load when no file existed and the
// annotated template was written in its place.
var ErrConfigCreated = errors.New("config file created")

// MissingKeysError lists mandatory settings left empty.
type MissingKeysError struct {
	Path string
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing configuration in %s: %s (or set GTS_<SECTION>_<KEY>)",
		e.Path, strings.Join(e.Keys, ", "))
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# gts configuration
#
# Every value can be overridden with an environment variable named
# GTS_<SECTION>_<KEY>, e.g. GTS_GITLAB_TOKEN. A .env file in the working
# directory is read before this file.

default:
  # Hamster SQLite database.
  db: ~/.local/share/hamster-applet/hamster.db

  # Accepted date formats, comma separated, tried in order.
  # The first one is used to print dates.
  date_formats: DD/MM/YY, DD/MM, YYYY-MM-DD

  # Regular expression matched at the start of each activity name.
  # The first capture group is the GitLab issue number.
  issue_id_regexp: '#(\d+)'

  # Also accept English phrases such as "yesterday" or "last friday".
  natural_dates: true

gitlab:
  url: https://gitlab.com

  # Numeric id or "group/project" path of the project holding the issues.
  project_id: ""

  # Personal access token with the "api" scope.
  token: ""

  proxy_url: ""
  timeout: 30s

log:
  # debug, info, warn or error. --verbose forces debug.
  level: warn

  # Leave empty to log to stderr.
  file: ""
  max_size_mb: 10
  max_backups: 3
`

// DefaultPath returns $XDG_CONFIG_HOME/gts/config.yaml.
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile(relPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return p, nil
}

// LoadDotEnv reads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyDB, "~/.local/share/hamster-applet/hamster.db")
	v.SetDefault(keyDateFormats, "DD/MM/YY, DD/MM, YYYY-MM-DD")
	v.SetDefault(keyIssueIDRegexp, `#(\d+)`)
	v.SetDefault(keyNaturalDates, true)
	v.SetDefault(keyGitLabURL, "https://gitlab.com")
	v.SetDefault(keyProjectID, "")
	v.SetDefault(keyToken, "")
	v.SetDefault(keyProxyURL, "")
	v.SetDefault(keyTimeout, "30s")
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyLogFile, "")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
}

// Load reads the configuration at path. When the file does not exist the
// annotated template is written and ErrConfigCreated is returned so the
// user can fill it in.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s, edit it and run again", ErrConfigCreated, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{
		Path: path,
		Default: DefaultConfig{
			DB:            v.GetString(keyDB),
			DateFormats:   stringList(v, keyDateFormats),
			IssueIDRegexp: v.GetString(keyIssueIDRegexp),
			NaturalDates:  v.GetBool(keyNaturalDates),
		},
		GitLab: GitLabConfig{
			URL:       v.GetString(keyGitLabURL),
			ProjectID: v.GetString(keyProjectID),
			Token:     v.GetString(keyToken),
			ProxyURL:  v.GetString(keyProxyURL),
			Timeout:   v.GetDuration(keyTimeout),
		},
		Log: LogConfig{
			Level:      v.GetString(keyLogLevel),
			File:       v.GetString(keyLogFile),
			MaxSizeMB:  v.GetInt(keyLogMaxSize),
			MaxBackups: v.GetInt(keyLogMaxBackups),
		},
	}
	return cfg, nil
}

// stringList accepts either a YAML list or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks mandatory settings. GitLab settings are only required
// when remote is set.
func (c *Config) Validate(remote bool) error {
	var missing []string
	if c.Default.DB == "" {
		missing = append(missing, keyDB)
	}
	if len(c.Default.DateFormats) == 0 {
		missing = append(missing, keyDateFormats)
	}
	if c.Default.IssueIDRegexp == "" {
		missing = append(missing, keyIssueIDRegexp)
	}
	if remote {
		if c.GitLab.URL == "" {
			missing = append(missing, keyGitLabURL)
		}
		if c.GitLab.ProjectID == "" {
			missing = append(missing, keyProjectID)
		}
		if c.GitLab.Token == "" {
			missing = append(missing, keyToken)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Path: c.Path, Keys: missing}
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.GitLab.Token != "" {
		c.GitLab.Token = "********"
	}
	return c
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

// writeDefault creates the config directory and writes the annotated
// template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
