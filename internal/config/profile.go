package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Profile configures the phoenix-reply CLI.
type Profile struct {
	BaseURL        string
	AdminToken     string
	CookieName     string
	TimeoutSeconds int
	MaxUploadBytes int
	InputFormat    string
	InputDevice    string
	FFmpegPath     string
	Logger         LoggerConfig
}

type profileFile struct {
	BaseURL        string `toml:"base_url"`
	AdminToken     string `toml:"admin_token"`
	CookieName     string `toml:"cookie_name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxUploadBytes int    `toml:"max_upload_bytes"`
	InputFormat    string `toml:"input_format"`
	InputDevice    string `toml:"input_device"`
	FFmpegPath     string `toml:"ffmpeg_path"`
	LogLevel       string `toml:"log_level"`
}

// LoadProfile reads the CLI profile. Values come from defaults, then the
// TOML file at path (or the default location when path is empty), then
// PHOENIX_* environment variables.
func LoadProfile(path string) (*Profile, error) {
	_ = godotenv.Load()

	format, device := defaultInput(runtime.GOOS)
	p := &Profile{
		BaseURL:        "http://localhost:3000/api",
		CookieName:     "admin_token",
		TimeoutSeconds: 60,
		MaxUploadBytes: DefaultMaxUploadBytes,
		InputFormat:    format,
		InputDevice:    device,
		FFmpegPath:     "ffmpeg",
		Logger:         LoggerConfig{Level: "warn", Encoding: "console"},
	}

	explicit := path != ""
	if !explicit {
		path = profilePath()
	}
	if path != "" {
		var pf profileFile
		if _, err := toml.DecodeFile(path, &pf); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading profile %s: %w", path, err)
			}
		} else {
			p.merge(pf)
		}
	}

	p.applyEnv()
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	return p, nil
}

func (p *Profile) merge(pf profileFile) {
	if pf.BaseURL != "" {
		p.BaseURL = pf.BaseURL
	}
	if pf.AdminToken != "" {
		p.AdminToken = pf.AdminToken
	}
	if pf.CookieName != "" {
		p.CookieName = pf.CookieName
	}
	if pf.TimeoutSeconds > 0 {
		p.TimeoutSeconds = pf.TimeoutSeconds
	}
	if pf.MaxUploadBytes > 0 {
		p.MaxUploadBytes = pf.MaxUploadBytes
	}
	if pf.InputFormat != "" {
		p.InputFormat = pf.InputFormat
	}
	if pf.InputDevice != "" {
		p.InputDevice = pf.InputDevice
	}
	if pf.FFmpegPath != "" {
		p.FFmpegPath = pf.FFmpegPath
	}
	if pf.LogLevel != "" {
		p.Logger.Level = pf.LogLevel
	}
}

func (p *Profile) applyEnv() {
	if v := os.Getenv("PHOENIX_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv("PHOENIX_ADMIN_TOKEN"); v != "" {
		p.AdminToken = v
	}
	if v := os.Getenv("PHOENIX_INPUT_FORMAT"); v != "" {
		p.InputFormat = v
	}
	if v := os.Getenv("PHOENIX_INPUT_DEVICE"); v != "" {
		p.InputDevice = v
	}
	if v := os.Getenv("PHOENIX_FFMPEG"); v != "" {
		p.FFmpegPath = v
	}
	p.TimeoutSeconds = getEnvAsInt("PHOENIX_TIMEOUT_SECONDS", p.TimeoutSeconds)
	p.MaxUploadBytes = getEnvAsInt("PHOENIX_MAX_UPLOAD_BYTES", p.MaxUploadBytes)
	p.Logger.Level = getEnv("PHOENIX_LOG_LEVEL", p.Logger.Level)
}

func profilePath() string {
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "phoenix")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "phoenix")
	} else {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// defaultInput returns the ffmpeg input format and device for goos.
func defaultInput(goos string) (string, string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":default"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}
