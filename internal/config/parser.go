package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"post-assist-bot/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	DEFAULT_LISTEN      = ":5000"
	DEFAULT_PUBLIC_URL  = "http://127.0.0.1:5000"
	DEFAULT_PINCODE_URL = "https://api.postalpincode.in/pincode/"
	DEFAULT_GEOCODE_URL = "https://nominatim.openstreetmap.org/reverse"
	DEFAULT_USER_AGENT  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	DEFAULT_COOKIE      = "postbot_session"
)

var defaultExtensions = []string{"png", "jpg", "jpeg", "gif"}

// GetConfig loads the configuration or stops the application.
func GetConfig(configPath string, cnf *Conf) {
	logger.Debug("Loading configuration")

	if err := Load(configPath, cnf); err != nil {
		logger.Crit("Error while loading config!", err)
	}
}

// Load reads the yaml file (a missing file means defaults only), then
// applies .env and POSTBOT_* environment overrides and fills the defaults.
func Load(configPath string, cnf *Conf) error {
	input, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("Config file not found, using defaults:", configPath)
	case err != nil:
		return fmt.Errorf("read %s: %w", configPath, err)
	default:
		if err := yaml.NewDecoder(bytes.NewReader(input)).Decode(cnf); err != nil {
			return fmt.Errorf("decode %s: %w", configPath, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warning("Cannot read .env file:", err)
	}
	if err := env.Parse(cnf); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	setDefaults(cnf)
	return nil
}

func setDefaults(cnf *Conf) {
	if cnf.Server.Listen == "" {
		cnf.Server.Listen = DEFAULT_LISTEN
	}
	if cnf.Server.PublicURL == "" {
		cnf.Server.PublicURL = DEFAULT_PUBLIC_URL
	}
	if cnf.Upstream.PincodeURL == "" {
		cnf.Upstream.PincodeURL = DEFAULT_PINCODE_URL
	}
	if cnf.Upstream.GeocodeURL == "" {
		cnf.Upstream.GeocodeURL = DEFAULT_GEOCODE_URL
	}
	if cnf.Upstream.Timeout <= 0 {
		cnf.Upstream.Timeout = Duration(10 * time.Second)
	}
	if cnf.Upstream.UserAgent == "" {
		cnf.Upstream.UserAgent = DEFAULT_USER_AGENT
	}
	if cnf.Cache.PincodeTTL <= 0 {
		cnf.Cache.PincodeTTL = Duration(time.Hour)
	}
	if cnf.Session.TTL <= 0 {
		cnf.Session.TTL = Duration(24 * time.Hour)
	}
	if cnf.Session.Cookie == "" {
		cnf.Session.Cookie = DEFAULT_COOKIE
	}
	if cnf.Upload.MaxBytes <= 0 {
		cnf.Upload.MaxBytes = 10 << 20
	}
	if len(cnf.Upload.Extensions) == 0 {
		cnf.Upload.Extensions = defaultExtensions
	}
	if cnf.KnowledgeBase == "" {
		cnf.KnowledgeBase = "./data.json"
	}
	if cnf.ComplaintsFile == "" {
		cnf.ComplaintsFile = "./complaints.json"
	}
	if cnf.UploadsDir == "" {
		cnf.UploadsDir = "./uploaded_images"
	}
	if cnf.StaticDir == "" {
		cnf.StaticDir = "./static"
	}
}
