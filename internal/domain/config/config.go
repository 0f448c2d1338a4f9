package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domainerr "crosspost/internal/domain/errors"
)

type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Serve ServeConfig `yaml:"serve"`
	Cards CardsConfig `yaml:"cards"`
}

type SiteConfig struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

type ServeConfig struct {
	SourceDir string `yaml:"source_dir"`
	Listen    string `yaml:"listen"`
	CachePath string `yaml:"cache_path"`
}

// CardsConfig is the style-preset table for share cards. Presets are plain
// data handed to the formatter at call time; nothing here changes text
// content or budgets.
type CardsConfig struct {
	Preset  string       `yaml:"preset"`
	Presets []CardPreset `yaml:"presets"`
}

type CardPreset struct {
	Name       string `yaml:"name"`
	Background string `yaml:"background"`
	TextColor  string `yaml:"text_color"`
	FontSize   int    `yaml:"font_size"`
	Padding    int    `yaml:"padding"`
	ShowTitle  bool   `yaml:"show_title"`
	ShowDate   bool   `yaml:"show_date"`
	Watermark  string `yaml:"watermark"`
}

func (c CardsConfig) Find(name string) (CardPreset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return CardPreset{}, false
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title: "crosspost",
		},
		Serve: ServeConfig{
			SourceDir: "source",
			Listen:    ":8080",
			CachePath: ".crosspost/cache.db",
		},
		Cards: CardsConfig{
			Preset: "default",
			Presets: []CardPreset{
				{
					Name:       "default",
					Background: "#ffffff",
					TextColor:  "#1a1a1a",
					FontSize:   16,
					Padding:    40,
					ShowTitle:  true,
				},
				{
					Name:       "night",
					Background: "#1f2430",
					TextColor:  "#e6e1cf",
					FontSize:   16,
					Padding:    40,
					ShowTitle:  true,
				},
			},
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Serve.SourceDir) == "" {
		ve.Add("serve.source_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Serve.Listen) == "" {
		ve.Add("serve.listen", "must not be empty")
	}
	if strings.TrimSpace(c.Serve.CachePath) == "" {
		ve.Add("serve.cache_path", "must not be empty")
	}

	if strings.TrimSpace(c.Cards.Preset) == "" {
		ve.Add("cards.preset", "must not be empty")
	} else if _, ok := c.Cards.Find(c.Cards.Preset); !ok {
		ve.Add("cards.preset", "no preset named '"+c.Cards.Preset+"'")
	}
	seen := make(map[string]struct{}, len(c.Cards.Presets))
	for _, p := range c.Cards.Presets {
		if strings.TrimSpace(p.Name) == "" {
			ve.Add("cards.presets", "preset name must not be empty")
			continue
		}
		if _, dup := seen[p.Name]; dup {
			ve.Add("cards.presets", "duplicate preset '"+p.Name+"'")
		}
		seen[p.Name] = struct{}{}
		if p.FontSize < 0 {
			ve.Add("cards.presets."+p.Name+".font_size", "must not be negative")
		}
		if p.Padding < 0 {
			ve.Add("cards.presets."+p.Name+".padding", "must not be negative")
		}
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

// LoadOrDefault reads path if it exists; a missing file falls back to the
// built-in defaults. Fields present in the file override defaults, the
// rest keep them.
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Validate(); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
