package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Options shared by the commands. Values from a --config file apply
// unless the matching flag was given on the command line.
type cliConfig struct {
	Format   string `toml:"format"`
	Hex      bool   `toml:"hex"`
	Framed   bool   `toml:"framed"`
	Compact  bool   `toml:"compact"`
	Compress int    `toml:"compress"`
	LogLevel string `toml:"log_level"`
	MaxInput int64  `toml:"max_input"`
}

var (
	configPath string

	config = cliConfig{
		Format:   "text",
		LogLevel: "warn",
		MaxInput: 64 << 20,
	}
)

func loadConfig(flags *pflag.FlagSet, path string, cfg *cliConfig) error {
	if path == "" {
		return nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %q", path)
	}

	file := *cfg
	meta, err := toml.Decode(string(contents), &file)
	if err != nil {
		return errors.Wrapf(err, "parsing config file %q", path)
	}
	for _, key := range meta.Undecoded() {
		logrus.Warnf("ignoring unknown key %q in %s", key.String(), path)
	}

	override := func(flag string, set func()) {
		if meta.IsDefined(flag) && (flags.Lookup(flagName(flag)) == nil || !flags.Changed(flagName(flag))) {
			set()
		}
	}
	override("format", func() { cfg.Format = file.Format })
	override("hex", func() { cfg.Hex = file.Hex })
	override("framed", func() { cfg.Framed = file.Framed })
	override("compact", func() { cfg.Compact = file.Compact })
	override("compress", func() { cfg.Compress = file.Compress })
	override("log_level", func() { cfg.LogLevel = file.LogLevel })
	override("max_input", func() { cfg.MaxInput = file.MaxInput })
	return nil
}

// flagName maps a config key to its command line flag.
func flagName(key string) string {
	switch key {
	case "log_level":
		return "log-level"
	case "max_input":
		return "max-input"
	}
	return key
}
