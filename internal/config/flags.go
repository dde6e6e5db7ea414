package config

// This file implements CLI flag parsing and help text.
// The core options have a short and a long spelling
// (-in/--input_dir, -out/--output_dir, -fps/--image_rate, -v/--verbose).
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version is shown in --version and help; override at build time with
// -ldflags "-X github.com/backmassage/tiff2video/internal/config.Version=...".
var Version = "1.0.0-dev"

// ErrHelp and ErrVersion are returned by ParseFlags after the help or
// version text has been printed; callers should exit successfully.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// usageOut is where help text goes. Tests swap it.
var usageOut io.Writer = os.Stderr

// ParseFlags parses args (without the program name) into cfg. A config
// file named by --config is loaded first so explicit flags win over it.
func ParseFlags(cfg *Config, prog string, args []string) error {
	if path := findConfigArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var negated negatedFlags

	definePathFlags(fs, cfg)
	defineEncodingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(prog, cfg.Mode)
			return ErrHelp
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(prog, cfg.Mode)
		return ErrHelp
	}
	if negated.showVersion {
		fmt.Fprintln(usageOut, prog+" v"+Version)
		return ErrVersion
	}

	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	cfg.InputPath = NormalizePathArg(cfg.InputPath)
	cfg.OutputPath = NormalizePathArg(cfg.OutputPath)
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// definePathFlags registers -in/--input_dir and -out/--output_dir.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.InputPath, "in", "", "Input directory or file")
	fs.StringVar(&cfg.InputPath, "input_dir", "", "Same as -in")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Output directory or file")
	fs.StringVar(&cfg.OutputPath, "output_dir", cfg.OutputPath, "Same as -out")
}

// defineEncodingFlags registers -fps/--image_rate, --encoder, --quality, --ext.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Frames per second")
	fs.IntVar(&cfg.FPS, "image_rate", cfg.FPS, "Same as -fps")
	fs.Var(&encoderValue{&cfg.Encoder}, "encoder", "Encoder backend: ffmpeg | mjpeg | vidio")
	fs.IntVar(&cfg.FFmpeg.Quality, "quality", cfg.FFmpeg.Quality, "mpeg4 quantizer, 1 (best) to 31")
	fs.Var(&extListValue{&cfg.Extensions}, "ext", "Comma-separated discovery suffixes (default .tif*)")
}

// defineBehaviorFlags registers --skip-existing, --dry-run, --verify.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "Keep existing output videos")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not decode or write")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Check each written video with ffprobe")
}

// defineDisplayFlags registers -v/--verbose, --color, --no-color, --log, --check, --config.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.IntVar(&cfg.Verbosity, "v", cfg.Verbosity, "Verbosity: 0 silent, 1 info, 2 info+errors")
	fs.IntVar(&cfg.Verbosity, "verbose", cfg.Verbosity, "Same as -v")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML config file")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(prog string, mode Mode) {
	const col1 = 30
	summary := "Convert each multi-page TIFF into its own video"
	inputArg := "<file|dir>"
	if mode == ModeAggregate {
		summary = "Convert a directory of TIFF images into one video"
		inputArg = "<dir>"
	}
	lines := []struct {
		flags string
		desc  string
	}{
		{"", prog + " v" + Version + " - " + summary},
		{"", ""},
		{"  " + prog + " -in " + inputArg + " [-out <path>] [-fps <n>] [-v <n>]", ""},
		{"", ""},
		{"Paths", ""},
		{"  -in, --input_dir <path>", "Input directory or file (required)"},
		{"  -out, --output_dir <path>", "Output directory or file (default: input location)"},
		{"", ""},
		{"Encoding", ""},
		{"  -fps, --image_rate <n>", "Frames per second (default: 24)"},
		{"  --encoder <name>", "ffmpeg: mp4v in MP4; mjpeg: Motion-JPEG AVI; vidio: mpeg4 via Vidio (default: ffmpeg)"},
		{"  --quality <1-31>", "mpeg4 quantizer (default: 2)"},
		{"  --ext <list>", "Comma-separated discovery suffixes (default: .tif*)"},
		{"", ""},
		{"Behavior", ""},
		{"  --skip-existing", "Keep existing output videos"},
		{"  -d, --dry-run", "Preview only; do not decode or write"},
		{"  --verify", "Check each written video with ffprobe"},
		{"", ""},
		{"Display", ""},
		{"  -v, --verbose <n>", "0 silent, 1 info, 2 info+errors (default: 1)"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "Load defaults from a TOML file"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, mpeg4)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(usageOut)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(usageOut, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(usageOut, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(usageOut, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum and list types with flag.Var.

type encoderValue struct{ p *Encoder }

func (e *encoderValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}

func (e *encoderValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "ffmpeg":
		*e.p = EncoderFFmpeg
	case "mjpeg":
		*e.p = EncoderMJPEG
	case "vidio":
		*e.p = EncoderVidio
	default:
		return fmt.Errorf("invalid encoder %q (use 'ffmpeg', 'mjpeg' or 'vidio')", s)
	}
	return nil
}

type extListValue struct{ p *[]string }

func (e *extListValue) String() string {
	if e.p == nil {
		return ""
	}
	return strings.Join(*e.p, ",")
}

func (e *extListValue) Set(s string) error {
	var exts []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts = append(exts, part)
	}
	if len(exts) == 0 {
		return fmt.Errorf("invalid extension list %q", s)
	}
	*e.p = exts
	return nil
}
