package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Layout names understood by the scraper.
const (
	LayoutShared   = "shared"
	LayoutRendered = "rendered"
)

// Config represents the application configuration
type Config struct {
	Common   CommonConfig   `yaml:"common"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Render   RenderConfig   `yaml:"render"`
	Telegram TelegramConfig `yaml:"telegram"`
	TMDB     TMDBConfig     `yaml:"tmdb"`
	API      APIConfig      `yaml:"api"`
	Cinemas  []CinemaConfig `yaml:"cinemas"`
}

type CommonConfig struct {
	Debug  bool   `yaml:"debug"`
	LogDir string `yaml:"log_dir"`
}

type ProxyConfig struct {
	Switch     bool   `yaml:"switch"`
	Proxy      string `yaml:"proxy"`
	Timeout    int    `yaml:"timeout"`
	Type       string `yaml:"type"`
	CACertFile string `yaml:"cacert_file"`
	UserAgent  string `yaml:"user_agent"`
}

// RenderConfig 无头浏览器渲染配置
type RenderConfig struct {
	Headless          bool   `yaml:"headless"`
	ExecPath          string `yaml:"exec_path"`          // Chrome 可执行文件路径，空则自动查找
	NoSandbox         bool   `yaml:"no_sandbox"`         // 容器内运行时需要
	WaitSelector      string `yaml:"wait_selector"`      // 渲染完成标志元素
	NavigationTimeout int    `yaml:"navigation_timeout"` // 秒
	WaitTimeout       int    `yaml:"wait_timeout"`       // 秒
	SettleDelay       int    `yaml:"settle_delay_ms"`    // 毫秒
}

type TelegramConfig struct {
	Token       string `yaml:"token"`
	Debug       bool   `yaml:"debug"`
	PollTimeout int    `yaml:"poll_timeout"`
}

type TMDBConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	ImageBaseURL string `yaml:"image_base_url"`
	Language     string `yaml:"language"`
	Timeout      int    `yaml:"timeout"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CinemaConfig describes one listing source.
type CinemaConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Emoji  string `yaml:"emoji"`
	URL    string `yaml:"url"`
	Layout string `yaml:"layout"`
}

// Label is the text shown on the cinema button.
func (c CinemaConfig) Label() string {
	if c.Emoji == "" {
		return c.Name
	}
	return c.Emoji + " " + c.Name
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	searchPaths := []string{
		configPath,
		filepath.Join(".", "config.yaml"),
		filepath.Join(".", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".cartelera.yaml"),
	}

	var actualPath string
	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			actualPath = path
			break
		}
	}

	var config *Config
	if actualPath == "" {
		target := configPath
		if target == "" {
			target = searchPaths[1]
		}
		cfg, err := createDefaultConfig(target)
		if err != nil {
			return nil, err
		}
		config = cfg
	} else {
		data, err := os.ReadFile(actualPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = Default()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env 文件是可选的
	_ = godotenv.Load()
	config.ApplyEnvOverrides()

	return config, nil
}

// Default returns the built-in configuration for the three southern Madrid cinemas.
func Default() *Config {
	return &Config{
		Common: CommonConfig{
			Debug: false,
		},
		Proxy: ProxyConfig{
			Switch:  false,
			Timeout: 10,
			Type:    "socks5",
		},
		Render: RenderConfig{
			Headless:          true,
			NoSandbox:         true,
			WaitSelector:      "div.sessions",
			NavigationTimeout: 30,
			WaitTimeout:       10,
			SettleDelay:       2000,
		},
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Language:     "es-ES",
			Timeout:      10,
		},
		API: APIConfig{
			Enabled: false,
			Addr:    ":8080",
		},
		Cinemas: []CinemaConfig{
			{
				ID:     "cinesa",
				Name:   "Cinesa Parquesur",
				Emoji:  "🎟️",
				URL:    "https://www.filmaffinity.com/es/theater-showtimes.php?id=264",
				Layout: LayoutShared,
			},
			{
				ID:     "odeon",
				Name:   "Odeón Sambil",
				Emoji:  "🎥",
				URL:    "https://www.publicine.net/cartelera-cine/leganes/odeon-sambil",
				Layout: LayoutRendered,
			},
			{
				ID:     "yelmo",
				Name:   "Yelmo Islazul",
				Emoji:  "🍿",
				URL:    "https://www.filmaffinity.com/es/theater-showtimes.php?id=475",
				Layout: LayoutShared,
			},
		},
	}
}

// createDefaultConfig creates a default configuration file
func createDefaultConfig(path string) (*Config, error) {
	config := Default()

	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write default config: %w", err)
	}

	return config, nil
}

// ApplyEnvOverrides 使用环境变量覆盖配置（凭据不写入配置文件）
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
	if v := os.Getenv("CARTELERA_PROXY"); v != "" {
		c.Proxy.Switch = true
		c.Proxy.Proxy = v
	}
	if v := os.Getenv("CARTELERA_API_ADDR"); v != "" {
		c.API.Enabled = true
		c.API.Addr = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		c.Render.ExecPath = v
	}
}

// Cinema looks up a configured cinema by id (case-insensitive).
func (c *Config) Cinema(id string) (CinemaConfig, bool) {
	for _, cinema := range c.Cinemas {
		if strings.EqualFold(cinema.ID, id) {
			return cinema, true
		}
	}
	return CinemaConfig{}, false
}

// FetchTimeout returns the HTTP timeout used for listing pages.
func (p ProxyConfig) FetchTimeout() time.Duration {
	if p.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.Timeout) * time.Second
}
