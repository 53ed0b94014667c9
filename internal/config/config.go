package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	perrors "github.com/jmgilman/go/errors"

	"github.com/raphi011/gitcoord/internal/cache"
	"github.com/raphi011/gitcoord/internal/git"
	"github.com/raphi011/gitcoord/internal/lock"
	"github.com/raphi011/gitcoord/internal/retry"
	"github.com/raphi011/gitcoord/internal/watch"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "GITCOORD_CONFIG"

// RetryConfig holds lock conflict retry settings
type RetryConfig struct {
	MaxRetries   int      `toml:"max_retries"`
	BaseDelay    Duration `toml:"base_delay"`
	StaleLockAge Duration `toml:"stale_lock_age"`
}

// Options converts the settings into retry options.
func (c RetryConfig) Options() []retry.Option {
	return []retry.Option{
		retry.WithMaxRetries(c.MaxRetries),
		retry.WithBaseDelay(c.BaseDelay.Duration),
		retry.WithStaleAge(c.StaleLockAge.Duration),
	}
}

// TimeoutsConfig bounds git invocations per operation class
type TimeoutsConfig struct {
	Local   Duration `toml:"local"`
	Network Duration `toml:"network"`
	Long    Duration `toml:"long"`
}

// Timeouts converts the settings into git timeouts.
func (c TimeoutsConfig) Timeouts() git.Timeouts {
	return git.Timeouts{Local: c.Local.Duration, Network: c.Network.Duration, Long: c.Long.Duration}
}

// WatchConfig holds repository watcher timing
type WatchConfig struct {
	Debounce  Duration `toml:"debounce"`
	Stability Duration `toml:"stability"`
}

// Options converts the settings into watcher options.
func (c WatchConfig) Options() []watch.Option {
	return []watch.Option{
		watch.WithDebounce(c.Debounce.Duration),
		watch.WithStability(c.Stability.Duration),
	}
}

// CacheEntryConfig configures one cache instance
type CacheEntryConfig struct {
	MaxAge     Duration `toml:"max_age"`
	MaxEntries int      `toml:"max_entries"`
	MaxSize    Size     `toml:"max_size"` // 0 = no byte limit
}

// CacheConfig converts the settings into a cache configuration.
func (c CacheEntryConfig) CacheConfig() cache.Config {
	return cache.Config{MaxAge: c.MaxAge.Duration, MaxEntries: c.MaxEntries, MaxSizeBytes: int64(c.MaxSize)}
}

// CachesConfig holds the three cache instances
type CachesConfig struct {
	Status  CacheEntryConfig `toml:"status"`
	Diff    CacheEntryConfig `toml:"diff"`
	Content CacheEntryConfig `toml:"content"`
}

// ValidThemeNames lists the theme families understood by [theme] name.
var ValidThemeNames = []string{"none", "default", "dracula", "nord", "gruvbox", "catppuccin"}

// ValidThemeModes lists the values accepted by [theme] mode.
var ValidThemeModes = []string{"auto", "light", "dark"}

// ThemeConfig selects the colors used for terminal output
type ThemeConfig struct {
	Name string `toml:"name"` // theme family, see ValidThemeNames
	Mode string `toml:"mode"` // "auto" follows the terminal background
}

// Config holds the gitcoord configuration
type Config struct {
	Retry    RetryConfig    `toml:"retry"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Watch    WatchConfig    `toml:"watch"`
	Cache    CachesConfig   `toml:"cache"`
	Theme    ThemeConfig    `toml:"theme"`
}

func entryFrom(c cache.Config) CacheEntryConfig {
	return CacheEntryConfig{MaxAge: Duration{c.MaxAge}, MaxEntries: c.MaxEntries, MaxSize: Size(c.MaxSizeBytes)}
}

// Default returns the default configuration
func Default() Config {
	timeouts := git.DefaultTimeouts()
	return Config{
		Retry: RetryConfig{
			MaxRetries:   retry.DefaultMaxRetries,
			BaseDelay:    Duration{retry.DefaultBaseDelay},
			StaleLockAge: Duration{lock.DefaultStaleAge},
		},
		Timeouts: TimeoutsConfig{
			Local:   Duration{timeouts.Local},
			Network: Duration{timeouts.Network},
			Long:    Duration{timeouts.Long},
		},
		Watch: WatchConfig{
			Debounce:  Duration{watch.DefaultDebounce},
			Stability: Duration{watch.DefaultStability},
		},
		Cache: CachesConfig{
			Status:  entryFrom(cache.StatusConfig()),
			Diff:    entryFrom(cache.DiffConfig()),
			Content: entryFrom(cache.ContentConfig()),
		},
		Theme: ThemeConfig{Name: "default", Mode: "auto"},
	}
}

// Path returns the config file location: $GITCOORD_CONFIG if set,
// otherwise ~/.config/gitcoord/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return expandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gitcoord", "config.toml"), nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Load reads the config file at Path.
// Returns Default() if the file doesn't exist (no error).
// Returns Default() and an error if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), perrors.Wrapf(err, perrors.CodeInvalidConfig, "failed to parse config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Default(), perrors.Newf(perrors.CodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

const defaultConfig = `# gitcoord configuration
#
# Durations use Go syntax ("250ms", "5s", "2m").
# Sizes accept plain bytes or a KB/MB/GB suffix ("50MB").

# Retrying git commands that fail because another process holds a lock
[retry]
max_retries = 3          # retries after the first attempt
base_delay = "1s"        # wait before the first retry, doubled each time
stale_lock_age = "5m"    # lock files older than this are removed before a retry

# Upper bound per git invocation, by operation class
[timeouts]
local = "30s"            # status, diff, commit, checkout
network = "2m"           # fetch, pull, push
long = "10m"             # clone, gc, large rebases

# Repository watcher
[watch]
debounce = "100ms"       # quiet period after the last change before notifying
stability = "50ms"       # a changed file must hold still this long

# Caches. max_size = 0 disables the byte limit.
[cache.status]
max_age = "5s"
max_entries = 20

[cache.diff]
max_age = "1m"
max_entries = 100
max_size = "50MB"

[cache.content]
max_age = "5m"
max_entries = 500
max_size = "100MB"

# Terminal colors: none, default, dracula, nord, gruvbox, catppuccin
[theme]
name = "default"
mode = "auto"            # auto, light or dark
`

// Init creates a default config file at Path.
// If force is true, overwrites existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Duration is a time.Duration written as a string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration like time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
