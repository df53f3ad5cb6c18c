package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "bert",
	Short:             "bert - inspect and produce Erlang external term format data",
	PersistentPreRunE: before,
	SilenceUsage:      true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML file with default option values")
	flags.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log messages including and over the specified level: debug, info, warn, error, fatal, panic")
	flags.Int64Var(&config.MaxInput, "max-input", config.MaxInput, "Maximum number of input bytes to read")
	flags.BoolVar(&config.Hex, "hex", config.Hex, "Read or write BERT data as hex text")
	flags.BoolVar(&config.Framed, "framed", config.Framed, "BERT data is prefixed with a 4-byte big-endian length")

	rootCmd.AddCommand(decodeCmd, encodeCmd)
}

func before(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd.Flags(), configPath, &config); err != nil {
		return err
	}
	if config.LogLevel == "" {
		config.LogLevel = "warn"
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	logrus.Debugf("%s filtering at log level %s", cmd.CommandPath(), logrus.GetLevel())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
