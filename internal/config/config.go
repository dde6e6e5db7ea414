// Package config holds runtime configuration: defaults, an optional TOML
// file, CLI flag parsing, and validation. Defaults: 24 fps, verbosity 1,
// mp4v in MP4.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// --- Enum types for validated string fields ---

// Mode selects which conversion flow a binary runs.
type Mode string

const (
	ModeBatch     Mode = "batch"     // One video per multi-page file (tiff2video).
	ModeAggregate Mode = "aggregate" // One video from a directory of single-page files (dirtiff2video).
)

// Encoder selects the video writer backend.
type Encoder string

const (
	EncoderFFmpeg Encoder = "ffmpeg" // MPEG-4 Part 2 (mp4v) in MP4 via an ffmpeg subprocess (default).
	EncoderMJPEG  Encoder = "mjpeg"  // Motion-JPEG in AVI, pure Go, no external tools.
	EncoderVidio  Encoder = "vidio"  // mpeg4 in MP4 through the Vidio library; runs the ffmpeg found on PATH.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Verbosity thresholds. 0 is silent.
const (
	VerbosityInfo  = 1 // Informational messages.
	VerbosityError = 2 // Informational and error messages.
	VerbosityDebug = 3 // Adds ffmpeg command lines.
)

// FFmpeg groups the settings of the ffmpeg backend.
type FFmpeg struct {
	Binary  string `toml:"binary"`  // Default: "ffmpeg".
	Probe   string `toml:"probe"`   // Default: "ffprobe".
	Codec   string `toml:"-"`       // Fixed: "mpeg4".
	Tag     string `toml:"-"`       // Fixed: "mp4v".
	Quality int    `toml:"quality"` // -q:v, 1 (best) to 31. Default: 2.
}

// MJPEG groups the settings of the pure-Go Motion-JPEG backend.
type MJPEG struct {
	Quality int `toml:"quality"` // JPEG quality 1-100. Default: 90.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], then mutated by [ParseFlags] before
// being passed (by pointer) to packages that need it. The toml tags name
// the keys accepted in a config file; fields tagged "-" are CLI-only.
type Config struct {
	// Paths (from -in / -out).
	InputPath  string `toml:"-"`
	OutputPath string `toml:"output_dir"`

	// Conversion.
	Mode       Mode     `toml:"-"`          // Fixed per binary.
	Encoder    Encoder  `toml:"encoder"`    // Default: "ffmpeg".
	FPS        int      `toml:"image_rate"` // Default: 24.
	Extensions []string `toml:"extensions"` // Discovery suffixes; empty means ".tif*".

	FFmpeg FFmpeg `toml:"ffmpeg"`
	MJPEG  MJPEG  `toml:"mjpeg"`

	// Behavior flags.
	SkipExisting bool `toml:"skip_existing"`
	DryRun       bool `toml:"-"`
	Verify       bool `toml:"verify"`

	// Display and logging.
	Verbosity  int       `toml:"verbose"` // Default: 1.
	ColorMode  ColorMode `toml:"color"`   // Default: "auto".
	LogFile    string    `toml:"log_file"`
	ConfigFile string    `toml:"-"`
	CheckOnly  bool      `toml:"-"`
}

// DefaultTIFFExtensions is the discovery filter used by both conversion flows.
var DefaultTIFFExtensions = []string{".tif*"}

// DefaultConfig returns a Config with all defaults set. Used as the base
// before [LoadFile] and [ParseFlags].
func DefaultConfig() Config {
	return Config{
		Mode:    ModeBatch,
		Encoder: EncoderFFmpeg,
		FPS:     24,
		FFmpeg: FFmpeg{
			Binary:  "ffmpeg",
			Probe:   "ffprobe",
			Codec:   "mpeg4",
			Tag:     "mp4v",
			Quality: 2,
		},
		MJPEG: MJPEG{
			Quality: 90,
		},
		Verbosity: VerbosityInfo,
		ColorMode: ColorAuto,
	}
}

// VideoExt returns the output file extension (with dot) for the selected backend.
func (c *Config) VideoExt() string {
	if c.Encoder == EncoderMJPEG {
		return ".avi"
	}
	return ".mp4"
}

// DiscoveryExtensions returns the suffix filter for file discovery.
func (c *Config) DiscoveryExtensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultTIFFExtensions
	}
	return c.Extensions
}

// NormalizePathArg strips trailing slashes from a path argument.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizePathArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks that enum fields hold valid values and numeric settings
// are in range. When not in CheckOnly mode, it also requires an input path.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBatch, ModeAggregate:
		// valid
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}

	switch c.Encoder {
	case EncoderFFmpeg, EncoderMJPEG, EncoderVidio:
		// valid
	default:
		return errors.New("invalid encoder (use 'ffmpeg', 'mjpeg' or 'vidio')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.FPS <= 0 {
		return fmt.Errorf("frame rate must be positive (got %d)", c.FPS)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must not be negative (got %d)", c.Verbosity)
	}
	if c.FFmpeg.Quality < 1 || c.FFmpeg.Quality > 31 {
		return fmt.Errorf("ffmpeg quality must be in 1..31 (got %d)", c.FFmpeg.Quality)
	}
	if c.MJPEG.Quality < 1 || c.MJPEG.Quality > 100 {
		return fmt.Errorf("mjpeg quality must be in 1..100 (got %d)", c.MJPEG.Quality)
	}
	for _, ext := range c.Extensions {
		if strings.TrimSpace(ext) == "" {
			return errors.New("extension filter must not contain empty entries")
		}
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputPath == "" {
		return errors.New("need an input path (-in)")
	}
	return nil
}
