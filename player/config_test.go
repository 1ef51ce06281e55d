package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/goink/story"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

const playerConf = `
[player]
prompt    = "> "
trace     = "Debug"
budget_ms = 20
seed      = 7
fallbacks = true

[bindings]
get_name = "Ann"
get_age  = 42
`

func TestParseConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	c, err := ParseConfig(playerConf)
	if err != nil {
		t.Fatal(err)
	}
	if c.Player.Prompt != "> " || c.Player.BudgetMs != 20 || !c.Player.Fallbacks {
		t.Errorf("unexpected player options %+v", c.Player)
	}
	if c.Player.Seed == nil || *c.Player.Seed != 7 {
		t.Errorf("expected seed 7")
	}
	settings := c.Settings()
	if settings.GetInt(story.ConfStorySeed) != 7 {
		t.Errorf("expected seed in settings, have %v", settings[story.ConfStorySeed])
	}
	if !settings.GetBool(story.ConfExternalFallbacks) {
		t.Errorf("expected fallbacks in settings")
	}
	if settings.GetString("tracelevel.root") != "Debug" {
		t.Errorf("expected trace level in settings, have %q", settings.GetString("tracelevel.root"))
	}
	if _, err = ParseConfig("[player"); err == nil {
		t.Errorf("expected broken TOML to fail")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "player.toml")
	if err := os.WriteFile(path, []byte("[player]\nbudget_ms = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Player.Prompt != DefaultConfig().Player.Prompt || c.Player.BudgetMs != 5 {
		t.Errorf("expected defaults to be kept, have %+v", c.Player)
	}
	if c.Settings().IsSet(story.ConfStorySeed) {
		t.Errorf("expected no seed without configuration")
	}
	if _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected missing file to fail")
	}
}

func TestBindAll(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	c, err := ParseConfig(playerConf)
	if err != nil {
		t.Fatal(err)
	}
	s, err := story.New([]byte(askName))
	if err != nil {
		t.Fatal(err)
	}
	if err = c.BindAll(s); err != nil {
		t.Fatal(err)
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Ann is 42\n" {
		t.Errorf("expected canned values in text, have %q", text)
	}
}
