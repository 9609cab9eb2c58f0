package config

import (
	"strings"
	"time"

	"post-assist-bot/internal/logger"

	"github.com/gin-gonic/gin"
)

type (
	// configuration contains the application settings
	Conf struct {
		Server   Server   `yaml:"server"`
		Upstream Upstream `yaml:"upstream"`
		Cache    Cache    `yaml:"cache"`
		Session  Session  `yaml:"session"`
		Upload   Upload   `yaml:"upload"`
		Metrics  Metrics  `yaml:"metrics"`

		// faq entries, json or yaml
		KnowledgeBase  string `yaml:"knowledge_base" env:"POSTBOT_KNOWLEDGE_BASE"`
		ComplaintsFile string `yaml:"complaints_file" env:"POSTBOT_COMPLAINTS_FILE"`
		UploadsDir     string `yaml:"uploads_dir" env:"POSTBOT_UPLOADS_DIR"`
		StaticDir      string `yaml:"static_dir" env:"POSTBOT_STATIC_DIR"`

		Log logger.Config `yaml:"log"`

		RunInDebug bool `yaml:"-"`
	}

	Server struct {
		Listen string `yaml:"listen" env:"POSTBOT_LISTEN"`
		// base used to build links to uploaded files
		PublicURL string `yaml:"public_url" env:"POSTBOT_PUBLIC_URL"`
	}

	Upstream struct {
		PincodeURL string   `yaml:"pincode_url" env:"POSTBOT_PINCODE_URL"`
		GeocodeURL string   `yaml:"geocode_url" env:"POSTBOT_GEOCODE_URL"`
		Timeout    Duration `yaml:"timeout" env:"POSTBOT_UPSTREAM_TIMEOUT"`
		UserAgent  string   `yaml:"user_agent" env:"POSTBOT_USER_AGENT"`
	}

	Cache struct {
		PincodeTTL Duration `yaml:"pincode_ttl" env:"POSTBOT_PINCODE_TTL"`
	}

	Session struct {
		TTL    Duration `yaml:"ttl" env:"POSTBOT_SESSION_TTL"`
		Cookie string   `yaml:"cookie" env:"POSTBOT_SESSION_COOKIE"`
	}

	Upload struct {
		MaxBytes   int64    `yaml:"max_bytes" env:"POSTBOT_UPLOAD_MAX_BYTES"`
		Extensions []string `yaml:"extensions" env:"POSTBOT_UPLOAD_EXTENSIONS" envSeparator:","`
	}

	Metrics struct {
		Enabled *bool `yaml:"enabled" env:"POSTBOT_METRICS_ENABLED"`
	}
)

// Duration reads "1h", "10s" and friends from yaml and env.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.Trim(strings.TrimSpace(string(b)), `"'`))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(b []byte) error {
	return d.UnmarshalText(b)
}

func (m Metrics) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

func Inject(key string, cnf *Conf) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cnf)
	}
}
