package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current value, so call it after [DefaultConfig] and
// before flags are applied.
//
//	image_rate = 15
//	verbose = 2
//	encoder = "ffmpeg"
//	extensions = [".tif*", ".png"]
//
//	[ffmpeg]
//	binary = "/usr/local/bin/ffmpeg"
//	quality = 3
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// findConfigArg returns the value of -config/--config in args without
// parsing the rest, so the file can be loaded before flags override it.
func findConfigArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
