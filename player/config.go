package player

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/story"
	"github.com/npillmayer/schuko"
)

// Config is the configuration of a player, usually read from a TOML file.
type Config struct {
	Player   Options                `toml:"player"`
	Bindings map[string]interface{} `toml:"bindings"`
}

// Options configures the behaviour of a player.
type Options struct {
	Prompt    string `toml:"prompt"`
	Trace     string `toml:"trace"`     // trace level: Debug, Info or Error
	BudgetMs  int    `toml:"budget_ms"` // time budget of a single continuation step
	Seed      *int   `toml:"seed"`
	Fallbacks bool   `toml:"fallbacks"` // use ink fallbacks for unbound externals
}

// DefaultConfig returns the configuration used if no file is given.
func DefaultConfig() *Config {
	return &Config{
		Player: Options{Prompt: "ink> ", Trace: "Error"},
	}
}

// LoadConfig reads a TOML configuration file. Settings missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, goink.Errorf(goink.MalformedDocument, "player configuration %s: %v", path, err)
	}
	for _, key := range md.Undecoded() {
		tracer().Infof("ignoring unknown configuration key %s", key)
	}
	return c, nil
}

// ParseConfig reads a configuration from TOML text.
func ParseConfig(text string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.Decode(text, c); err != nil {
		return nil, goink.Errorf(goink.MalformedDocument, "player configuration: %v", err)
	}
	return c, nil
}

// Settings returns the configuration as key-value settings, suitable for
// gconf.Initialize. Story keys are those of package story; tracing keys
// are understood by schuko's trace2go.
func (c *Config) Settings() Settings {
	s := Settings{
		"tracing.adapter":           "go",
		"tracelevel.root":           c.Player.Trace,
		story.ConfExternalFallbacks: c.Player.Fallbacks,
		story.ConfAsyncBudget:       c.Player.BudgetMs,
	}
	if c.Player.Seed != nil {
		s[story.ConfStorySeed] = *c.Player.Seed
	}
	return s
}

// BindAll binds the external functions of the [bindings] section. Each of
// them ignores its arguments and returns a fixed value.
func (c *Config) BindAll(s *story.Story) error {
	names := make([]string, 0, len(c.Bindings))
	for name := range c.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := c.Bindings[name]
		if i, ok := value.(int64); ok { // TOML integers
			value = int(i)
		}
		fn := func(args []interface{}) (interface{}, error) {
			return value, nil
		}
		if err := s.BindExternalFunction(name, -1, true, fn); err != nil {
			return err
		}
		tracer().Debugf("bound external %s to %v", name, value)
	}
	return nil
}

// --- Settings --------------------------------------------------------------

// Settings is a flat key-value configuration. It implements
// schuko.Configuration.
type Settings map[string]interface{}

var _ schuko.Configuration = Settings{}

// InitDefaults is part of interface schuko.Configuration.
func (s Settings) InitDefaults() {}

// IsSet is part of interface schuko.Configuration.
func (s Settings) IsSet(key string) bool {
	_, ok := s[key]
	return ok
}

// GetString is part of interface schuko.Configuration.
func (s Settings) GetString(key string) string {
	v, ok := s[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// GetInt is part of interface schuko.Configuration.
func (s Settings) GetInt(key string) int {
	switch x := s[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	}
	return 0
}

// GetBool is part of interface schuko.Configuration.
func (s Settings) GetBool(key string) bool {
	switch x := s[key].(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true")
	}
	return false
}

// IsInteractive is part of interface schuko.Configuration.
func (s Settings) IsInteractive() bool { return false }
