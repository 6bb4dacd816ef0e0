package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile describes how to talk to one kind of interactive agent: which
// glyph its prompt uses, which marker its responses carry, and how patient
// the poller should be. Profiles let the same bridge drive Claude Code,
// codex, or anything else with a prompt, without code changes.
type Profile struct {
	Name           string        `yaml:"name"`
	PromptGlyph    string        `yaml:"promptGlyph"`
	ResponseMarker string        `yaml:"responseMarker"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	PollDebounce   int           `yaml:"pollDebounce"`
	SendDelay      time.Duration `yaml:"sendDelay"`
}

// builtinProfiles cover the agents the bridge is known to work against.
// User-defined profiles in sessions.yaml override these by name.
var builtinProfiles = map[string]*Profile{
	"claude": {
		Name:           "claude",
		PromptGlyph:    "❯",
		ResponseMarker: "●",
		PollInterval:   2 * time.Second,
		PollDebounce:   2,
		SendDelay:      300 * time.Millisecond,
	},
	"codex": {
		Name:           "codex",
		PromptGlyph:    "›",
		ResponseMarker: "•",
		PollInterval:   2 * time.Second,
		PollDebounce:   2,
		SendDelay:      300 * time.Millisecond,
	},
}

// profilesFile is where user-defined session profiles live.
func profilesFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nanobridge", "sessions.yaml"), nil
}

// LoadProfiles returns all known profiles: built-ins merged with any
// user-defined ones from sessions.yaml. A missing file is not an error.
func LoadProfiles() (map[string]*Profile, error) {
	merged := make(map[string]*Profile, len(builtinProfiles))
	for name, p := range builtinProfiles {
		cp := *p
		merged[name] = &cp
	}

	path, err := profilesFile()
	if err != nil {
		return merged, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file struct {
		Sessions []*Profile `yaml:"sessions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, p := range file.Sessions {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: session profile without a name", path)
		}
		applyProfileDefaults(p)
		merged[p.Name] = p
	}
	return merged, nil
}

// Profile returns the profile for a session name, falling back to a profile
// synthesized from the flat config keys when no named profile exists. That
// keeps single-agent setups working with nothing but config.yaml.
func (c *Config) Profile(name string) *Profile {
	profiles, err := LoadProfiles()
	if err == nil {
		if p, ok := profiles[name]; ok {
			return p
		}
	}
	return &Profile{
		Name:           name,
		PromptGlyph:    c.PromptGlyph(),
		ResponseMarker: c.ResponseMarker(),
		PollInterval:   c.PollInterval(),
		PollDebounce:   c.PollDebounce(),
		SendDelay:      c.SendDelay(),
	}
}

// applyProfileDefaults fills zero fields with the claude built-in's values.
func applyProfileDefaults(p *Profile) {
	base := builtinProfiles["claude"]
	if p.PromptGlyph == "" {
		p.PromptGlyph = base.PromptGlyph
	}
	if p.ResponseMarker == "" {
		p.ResponseMarker = base.ResponseMarker
	}
	if p.PollInterval <= 0 {
		p.PollInterval = base.PollInterval
	}
	if p.PollDebounce <= 0 {
		p.PollDebounce = base.PollDebounce
	}
	if p.SendDelay <= 0 {
		p.SendDelay = base.SendDelay
	}
}
