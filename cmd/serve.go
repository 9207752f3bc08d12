package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/screenctl/internal/config"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/bnema/screenctl/internal/metrics"
	"github.com/bnema/screenctl/internal/server"
	"github.com/bnema/screenctl/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveTUI bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent",
	Long: `Run the agent on the configured transport. Each connection is one control
session; pointer frames are turned into touch gestures on the injector backend.

Send SIGUSR1 or create /tmp/screenctl-release to end every session at once.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Show the interactive status view")
	serveCmd.Flags().StringP("transport", "t", "", "Transport: tcp, unix, ssh or websocket")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringP("bind", "b", "", "Bind address")
	serveCmd.Flags().String("backend", "", "Injector backend: uinput, log or none")

	_ = viper.BindPFlag("agent.transport", serveCmd.Flags().Lookup("transport"))
	_ = viper.BindPFlag("agent.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("agent.listen_address", serveCmd.Flags().Lookup("bind"))
	_ = viper.BindPFlag("injector.backend", serveCmd.Flags().Lookup("backend"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	if cfg.Injector.Backend == input.BackendUInput {
		if err := input.CheckUInputAccess(""); err != nil {
			return err
		}
	}

	opts := []server.Option{}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(metrics.New()))
	}

	srv, err := server.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveTUI {
		logger.Quiet()
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	defer srv.Stop()

	if !serveTUI {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	}

	model := ui.NewServerModel(ui.ServerConfig{
		Transport: cfg.Agent.Transport,
		Address:   srv.Address(),
		Backend:   cfg.Injector.Backend,
		Sessions:  func() []ui.SessionRow { return sessionRows(srv.Sessions().List()) },
	})
	runner := ui.NewProgramRunner(model)

	srv.Sessions().OnActivity(func(level, message string) {
		go runner.Send(ui.ActivityMsg{Level: level, Text: message})
	})

	return runner.Run(ctx)
}

// sessionRows converts the registry listing for the status view
func sessionRows(infos []server.SessionInfo) []ui.SessionRow {
	rows := make([]ui.SessionRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, ui.SessionRow{
			ID:         info.ID,
			RemoteAddr: info.RemoteAddr,
			StartedAt:  info.StartedAt,
			Frames:     info.Stats.Frames,
			Events:     info.Stats.Events,
		})
	}
	return rows
}
