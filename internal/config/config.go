package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"reflect"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gogpu/gg"
	"github.com/joho/godotenv"

	"github.com/Zachkp/portfolio/internal/rain"
)

// ErrInvalid wraps every malformed configuration value.
var ErrInvalid = errors.New("config: invalid value")

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Config is the runtime configuration of the site.
type Config struct {
	Port string

	Rain rain.Params
	// Seed fixes the rain's random source. Zero picks a fresh seed per session.
	Seed uint64

	SectionThreshold float64
	CardThreshold    float64

	StreamQuality      int
	SessionIdleTimeout time.Duration
	// MaxSessions caps how many viewers can hold a session at once.
	MaxSessions      int
	MaxSurfaceWidth  int
	MaxSurfaceHeight int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:               "8080",
		Rain:               rain.DefaultParams(),
		SectionThreshold:   0.3,
		CardThreshold:      0.2,
		StreamQuality:      70,
		SessionIdleTimeout: 2 * time.Minute,
		MaxSessions:        64,
		MaxSurfaceWidth:    1920,
		MaxSurfaceHeight:   1080,
	}
}

// vars is the environment layout. Unset or empty variables keep the value
// already in the field.
type vars struct {
	Port string `env:"PORT"`

	GlyphSize        int     `env:"RAIN_GLYPH_SIZE"`
	Alphabet         string  `env:"RAIN_ALPHABET"`
	IntervalMs       int64   `env:"RAIN_INTERVAL_MS"`
	TrailAlpha       float64 `env:"RAIN_TRAIL_ALPHA"`
	Background       gg.RGBA `env:"RAIN_BACKGROUND"`
	GlyphColor       gg.RGBA `env:"RAIN_GLYPH_COLOR"`
	GlowRadius       float64 `env:"RAIN_GLOW_RADIUS"`
	GlowColor        gg.RGBA `env:"RAIN_GLOW_COLOR"`
	ResetProbability float64 `env:"RAIN_RESET_PROBABILITY"`
	SpeedMin         float64 `env:"RAIN_SPEED_MIN"`
	SpeedMax         float64 `env:"RAIN_SPEED_MAX"`
	OpacityMin       float64 `env:"RAIN_OPACITY_MIN"`
	OpacityMax       float64 `env:"RAIN_OPACITY_MAX"`
	Seed             uint64  `env:"RAIN_SEED"`

	SectionThreshold   float64       `env:"SECTION_THRESHOLD"`
	CardThreshold      float64       `env:"CARD_THRESHOLD"`
	StreamQuality      int           `env:"STREAM_JPEG_QUALITY"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT"`
	MaxSessions        int           `env:"MAX_SESSIONS"`
	MaxSurfaceWidth    int           `env:"MAX_SURFACE_WIDTH"`
	MaxSurfaceHeight   int           `env:"MAX_SURFACE_HEIGHT"`
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(gg.RGBA{}): func(v string) (interface{}, error) {
		if !hexColor.MatchString(v) {
			return nil, fmt.Errorf("%q: want #RGB, #RRGGBB or #RRGGBBAA", v)
		}
		return gg.Hex(v), nil
	},
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromMap(env.ToMap(os.Environ()))
}

// FromMap builds a Config from key/value pairs, typically the result of
// godotenv.Unmarshal or env.ToMap.
func FromMap(environ map[string]string) (Config, error) {
	if environ == nil {
		// A nil map would make the parser fall back to the process environment.
		environ = map[string]string{}
	}

	cfg := Default()
	v := toVars(cfg)
	if err := env.ParseWithOptions(&v, env.Options{Environment: environ, FuncMap: parsers}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg = v.apply(cfg)

	cfg.clamp()
	if err := cfg.Rain.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func toVars(c Config) vars {
	p := c.Rain
	return vars{
		Port:               c.Port,
		GlyphSize:          p.GlyphSize,
		Alphabet:           p.Alphabet,
		IntervalMs:         p.Interval.Milliseconds(),
		TrailAlpha:         p.TrailAlpha,
		Background:         p.Background,
		GlyphColor:         p.GlyphColor,
		GlowRadius:         p.GlowRadius,
		GlowColor:          p.GlowColor,
		ResetProbability:   p.ResetProbability,
		SpeedMin:           p.SpeedMin,
		SpeedMax:           p.SpeedMax,
		OpacityMin:         p.OpacityMin,
		OpacityMax:         p.OpacityMax,
		Seed:               c.Seed,
		SectionThreshold:   c.SectionThreshold,
		CardThreshold:      c.CardThreshold,
		StreamQuality:      c.StreamQuality,
		SessionIdleTimeout: c.SessionIdleTimeout,
		MaxSessions:        c.MaxSessions,
		MaxSurfaceWidth:    c.MaxSurfaceWidth,
		MaxSurfaceHeight:   c.MaxSurfaceHeight,
	}
}

func (v vars) apply(c Config) Config {
	c.Port = v.Port
	c.Rain.GlyphSize = v.GlyphSize
	c.Rain.Alphabet = v.Alphabet
	c.Rain.Interval = time.Duration(v.IntervalMs) * time.Millisecond
	c.Rain.TrailAlpha = v.TrailAlpha
	c.Rain.Background = v.Background
	c.Rain.GlyphColor = v.GlyphColor
	c.Rain.GlowRadius = v.GlowRadius
	c.Rain.GlowColor = v.GlowColor
	c.Rain.ResetProbability = v.ResetProbability
	c.Rain.SpeedMin = v.SpeedMin
	c.Rain.SpeedMax = v.SpeedMax
	c.Rain.OpacityMin = v.OpacityMin
	c.Rain.OpacityMax = v.OpacityMax
	c.Seed = v.Seed
	c.SectionThreshold = v.SectionThreshold
	c.CardThreshold = v.CardThreshold
	c.StreamQuality = v.StreamQuality
	c.SessionIdleTimeout = v.SessionIdleTimeout
	c.MaxSessions = v.MaxSessions
	c.MaxSurfaceWidth = v.MaxSurfaceWidth
	c.MaxSurfaceHeight = v.MaxSurfaceHeight
	return c
}

// clamp pulls soft limits back into range, warning about each one.
func (c *Config) clamp() {
	def := Default()

	if c.Rain.Interval < rain.MinInterval || c.Rain.Interval > rain.MaxInterval {
		clamped := min(max(c.Rain.Interval, rain.MinInterval), rain.MaxInterval)
		log.Printf("Warning: RAIN_INTERVAL_MS %d outside %d-%d, using %d",
			c.Rain.Interval.Milliseconds(), rain.MinInterval.Milliseconds(),
			rain.MaxInterval.Milliseconds(), clamped.Milliseconds())
		c.Rain.Interval = clamped
	}
	if c.SectionThreshold < 0 || c.SectionThreshold > 1 {
		log.Printf("Warning: SECTION_THRESHOLD %.2f outside [0, 1], using %.2f", c.SectionThreshold, def.SectionThreshold)
		c.SectionThreshold = def.SectionThreshold
	}
	if c.CardThreshold < 0 || c.CardThreshold > 1 {
		log.Printf("Warning: CARD_THRESHOLD %.2f outside [0, 1], using %.2f", c.CardThreshold, def.CardThreshold)
		c.CardThreshold = def.CardThreshold
	}
	if c.StreamQuality < 1 || c.StreamQuality > 100 {
		log.Printf("Warning: STREAM_JPEG_QUALITY %d outside 1-100, using %d", c.StreamQuality, def.StreamQuality)
		c.StreamQuality = def.StreamQuality
	}
	if c.SessionIdleTimeout <= 0 {
		log.Printf("Warning: SESSION_IDLE_TIMEOUT must be positive, using %s", def.SessionIdleTimeout)
		c.SessionIdleTimeout = def.SessionIdleTimeout
	}
	if c.MaxSessions <= 0 {
		log.Printf("Warning: MAX_SESSIONS must be positive, using %d", def.MaxSessions)
		c.MaxSessions = def.MaxSessions
	}
	if c.MaxSurfaceWidth <= 0 {
		c.MaxSurfaceWidth = def.MaxSurfaceWidth
	}
	if c.MaxSurfaceHeight <= 0 {
		c.MaxSurfaceHeight = def.MaxSurfaceHeight
	}
}
