package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bnema/screenctl/internal/config"
	"github.com/bnema/screenctl/internal/setup"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage screenctl configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Config file: %s\n\n", config.GetConfigPath())

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "[agent]")
		fmt.Fprintf(w, "  transport\t%s\n", cfg.Agent.Transport)
		fmt.Fprintf(w, "  listen_address\t%s\n", cfg.Agent.ListenAddress)
		fmt.Fprintf(w, "  port\t%d\n", cfg.Agent.Port)
		fmt.Fprintf(w, "  socket_path\t%s\n", cfg.Agent.SocketPath)
		fmt.Fprintf(w, "  buffer_size\t%d\n", cfg.Agent.BufferSize)
		fmt.Fprintf(w, "  max_sessions\t%d\n", cfg.Agent.MaxSessions)
		fmt.Fprintf(w, "  ssh_host_key_path\t%s\n", cfg.Agent.SSHHostKeyPath)
		fmt.Fprintf(w, "  ssh_whitelist_only\t%v\n", cfg.Agent.SSHWhitelistOnly)
		fmt.Fprintf(w, "  ssh_whitelist\t%d key(s)\n", len(cfg.Agent.SSHWhitelist))
		fmt.Fprintln(w, "[injector]")
		fmt.Fprintf(w, "  backend\t%s\n", cfg.Injector.Backend)
		fmt.Fprintf(w, "  device_name\t%s\n", cfg.Injector.DeviceName)
		fmt.Fprintf(w, "  size\t%dx%d\n", cfg.Injector.Width, cfg.Injector.Height)
		fmt.Fprintln(w, "[metrics]")
		fmt.Fprintf(w, "  enabled\t%v\n", cfg.Metrics.Enabled)
		fmt.Fprintf(w, "  address\t%s\n", cfg.Metrics.Address)
		fmt.Fprintln(w, "[logging]")
		fmt.Fprintf(w, "  log_level\t%s\n", cfg.Logging.LogLevel)
		fmt.Fprintf(w, "  file_logging\t%v\n", cfg.Logging.FileLogging)
		fmt.Fprintf(w, "  file\t%s\n", cfg.Logging.File)
		return w.Flush()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Long: `Write a configuration file. Without --defaults an interactive form asks for
the transport, injector backend and metrics settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists at: %s\nUse --force to overwrite\n", configPath)
			return nil
		}

		cfg := *config.Get()
		if useDefaults, _ := cmd.Flags().GetBool("defaults"); !useDefaults {
			if err := setup.Run(&cfg); err != nil {
				return err
			}
		}
		config.Apply(&cfg)

		if err := config.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", configPath)
		return nil
	},
}

var configSSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage the SSH key whitelist",
}

var configSSHListCmd = &cobra.Command{
	Use:   "list",
	Short: "List whitelisted SSH keys",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		if len(cfg.Agent.SSHWhitelist) == 0 {
			fmt.Fprintln(out, "No SSH keys in whitelist")
		}
		for i, fp := range cfg.Agent.SSHWhitelist {
			fmt.Fprintf(out, "%d. %s\n", i+1, fp)
		}
		if cfg.Agent.SSHWhitelistOnly {
			fmt.Fprintln(out, "Whitelist-only mode is ENABLED")
		} else {
			fmt.Fprintln(out, "Whitelist-only mode is DISABLED; all SSH keys are accepted")
		}
	},
}

var configSSHAddCmd = &cobra.Command{
	Use:   "add <fingerprint>",
	Short: "Allow an SSH key by its SHA256 fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.AddSSHKeyToWhitelist(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added SSH key to whitelist: %s\n", args[0])
		return nil
	},
}

var configSSHRemoveCmd = &cobra.Command{
	Use:   "remove <fingerprint>",
	Short: "Remove an SSH key from the whitelist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RemoveSSHKeyFromWhitelist(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed SSH key from whitelist: %s\n", args[0])
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configInitCmd.Flags().Bool("defaults", false, "Write the defaults without prompting")

	configSSHCmd.AddCommand(configSSHListCmd)
	configSSHCmd.AddCommand(configSSHAddCmd)
	configSSHCmd.AddCommand(configSSHRemoveCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSSHCmd)

	rootCmd.AddCommand(configCmd)
}
