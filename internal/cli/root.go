package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ag1104/attendance-system/internal/attendance"
	"github.com/Ag1104/attendance-system/internal/config"
	"github.com/Ag1104/attendance-system/internal/staff"
	"github.com/Ag1104/attendance-system/internal/storage"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the attendance CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "attendance",
		Short:         "Geofenced staff attendance sign-in service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", os.Getenv("ATTENDANCE_CONFIG"), "config file (yaml, toml or json)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTodayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// app is what every command needs: the configuration, an initialized
// ledger and the service on top of it.
type app struct {
	cfg    config.Config
	ledger storage.Ledger
	svc    *attendance.Service
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	ledger, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := ledger.EnsureInitialized(ctx); err != nil {
		ledger.Close()
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}
	return &app{
		cfg:    cfg,
		ledger: ledger,
		svc:    attendance.NewService(cfg, ledger, staff.NewLoader(cfg.StaffFile)),
	}, nil
}

func (a *app) Close() error { return a.ledger.Close() }
