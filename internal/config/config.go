// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/listingpacket/pkg/utils"
)

type Features struct {
	IncludeCover      bool `yaml:"include_cover"`
	CreateSocialPosts bool `yaml:"create_social_posts"`
	Compress          bool `yaml:"compress"`
}

type Cover struct {
	Background string   `yaml:"background"`
	Logo       string   `yaml:"logo"`
	Fonts      []string `yaml:"fonts"`
}

type Social struct {
	NewListing    string     `yaml:"new_listing"`
	UnderContract string     `yaml:"under_contract"`
	Sold          string     `yaml:"sold"`
	Fonts         []string   `yaml:"fonts"`
	TextColors    TextColors `yaml:"text_colors"`
}

// TextColors are "#rrggbb" values or "white"/"black", one per post.
type TextColors struct {
	NewListing    string `yaml:"new_listing"`
	UnderContract string `yaml:"under_contract"`
	Sold          string `yaml:"sold"`
}

type Intake struct {
	MaxMemberMB int64 `yaml:"max_member_mb"`
}

type Web struct {
	ListenAddr  string `yaml:"listen_addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type Updates struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type Config struct {
	AssetsDir string   `yaml:"assets_dir"`
	FontsDir  string   `yaml:"fonts_dir"`
	OutputDir string   `yaml:"output_dir"`
	Features  Features `yaml:"features"`
	Cover     Cover    `yaml:"cover"`
	Social    Social   `yaml:"social"`
	Intake    Intake   `yaml:"intake"`
	Web       Web      `yaml:"web"`
	Updates   Updates  `yaml:"updates"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{
		Features: Features{Compress: true},
		Updates:  Updates{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Features: Features{Compress: true},
		Updates:  Updates{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AssetsDir == "" {
		c.AssetsDir = "./templates"
	}
	if c.FontsDir == "" {
		c.FontsDir = "./fonts"
	}
	if c.OutputDir == "" {
		c.OutputDir = utils.GetDefaultOutputDir()
	}
	c.OutputDir = utils.ExpandHome(c.OutputDir)

	if c.Cover.Background == "" {
		c.Cover.Background = "cover_background.png"
	}
	if c.Cover.Logo == "" {
		c.Cover.Logo = "cover_logo.png"
	}
	if len(c.Cover.Fonts) == 0 {
		c.Cover.Fonts = []string{"PlayfairDisplay-Regular.ttf", "EBGaramond-Regular.ttf"}
	}

	if c.Social.NewListing == "" {
		c.Social.NewListing = "post_new_listing.png"
	}
	if c.Social.UnderContract == "" {
		c.Social.UnderContract = "post_under_contract.png"
	}
	if c.Social.Sold == "" {
		c.Social.Sold = "post_sold.png"
	}
	if c.Social.TextColors.NewListing == "" {
		c.Social.TextColors.NewListing = "white"
	}
	if c.Social.TextColors.UnderContract == "" {
		c.Social.TextColors.UnderContract = "#173348"
	}
	if c.Social.TextColors.Sold == "" {
		c.Social.TextColors.Sold = "#173348"
	}
	if len(c.Social.Fonts) == 0 {
		c.Social.Fonts = []string{
			"/System/Library/Fonts/Times.ttc",
			"/System/Library/Fonts/Helvetica.ttc",
		}
	}

	if c.Web.ListenAddr == "" {
		c.Web.ListenAddr = ":8501"
	}
	if c.Intake.MaxMemberMB <= 0 {
		c.Intake.MaxMemberMB = 200
	}
	if c.Web.MaxUploadMB <= 0 {
		c.Web.MaxUploadMB = 200
	}
	if c.Updates.URL == "" {
		c.Updates.URL = "https://api.github.com/repos/kpauljoseph/listingpacket/releases/latest"
	}
}

// Asset resolves a template file name against the assets directory.
func (c *Config) Asset(name string) string {
	return resolve(c.AssetsDir, name)
}

// Font resolves a font file name against the fonts directory.
func (c *Config) Font(name string) string {
	return resolve(c.FontsDir, name)
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(utils.ExpandHome(dir), name)
}
