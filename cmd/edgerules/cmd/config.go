package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// config is the CLI's one configurable surface: feature gates and default
// paths. Layered defaults -> optional XDG config file -> environment ->
// flags, the way holomush layers its own service config with koanf —
// generalized here to edgerules's much smaller surface.
type config struct {
	DefaultModelPath string `koanf:"model_path"`
	OutputFormat     string `koanf:"output_format"`
	EnableRegex      bool   `koanf:"enable_regex"`
	EnableBase64     bool   `koanf:"enable_base64"`
}

func defaultConfig() config {
	return config{
		DefaultModelPath: "",
		OutputFormat:     "text",
		EnableRegex:      false,
		EnableBase64:     false,
	}
}

// loadConfig layers defaults, the XDG user config file if present, the
// ENABLE_REGEX/ENABLE_BASE64 env vars (SPEC_FULL.md §6.7), then any flags
// already parsed onto cmd's flag set.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	k := koanf.New(".")
	cfg := defaultConfig()
	defaults := map[string]interface{}{
		"model_path":    cfg.DefaultModelPath,
		"output_format": cfg.OutputFormat,
		"enable_regex":  cfg.EnableRegex,
		"enable_base64": cfg.EnableBase64,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return cfg, err
	}

	if path, err := xdg.ConfigFile(filepath.Join("edgerules", "config.yaml")); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, err
			}
		}
	}

	envOverrides := map[string]interface{}{}
	if v := os.Getenv("ENABLE_REGEX"); v != "" {
		envOverrides["enable_regex"] = v == "1" || v == "true"
	}
	if v := os.Getenv("ENABLE_BASE64"); v != "" {
		envOverrides["enable_base64"] = v == "1" || v == "true"
	}
	if len(envOverrides) > 0 {
		if err := k.Load(confmap.Provider(envOverrides, "."), nil); err != nil {
			return cfg, err
		}
	}

	if flags != nil {
		// Flag names are hyphenated (--enable-regex) while config keys use
		// underscores (enable_regex); map one onto the other so a flag
		// actually overrides the key it names.
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return cfg, err
		}
	}

	var out config
	if err := k.Unmarshal("", &out); err != nil {
		return cfg, err
	}
	return out, nil
}
