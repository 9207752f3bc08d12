package cmd

import (
	"fmt"

	"github.com/bnema/screenctl/internal/config"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "screenctl",
		Short: "screenctl - remote control agent",
		Long: `screenctl is a device-side agent for screen sharing. A host streams
control frames over TCP, a unix socket, SSH or WebSocket; the agent decodes
them and injects pointer gestures through the uinput kernel module.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search /etc/screenctl, ~/.config/screenctl, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadSettings loads the configuration and applies the logging settings
func loadSettings(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	level := logLevel
	if level == "" {
		level = cfg.Logging.LogLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	if cfg.Logging.FileLogging && cfg.Logging.File != "" {
		if err := logger.SetupFileLogging(cfg.Logging.File); err != nil {
			logger.Warnf("File logging disabled: %v", err)
		}
	}
	return nil
}
