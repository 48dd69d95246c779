package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OpenListTeam/nanosockets/config"
	"github.com/OpenListTeam/nanosockets/logger"
	"github.com/OpenListTeam/nanosockets/metrics"
	"github.com/OpenListTeam/nanosockets/udp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfg *config.Config
	log logger.Logger
	svc *metrics.Service
}

func (a *app) newHost() *udp.Host {
	return udp.NewHost(a.cfg.HostOptions(a.log)...)
}

func newApp() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "nanosockets",
		Short:         "Handle-based UDP sockets toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "config file (default: search /etc/nanosockets, $HOME/.nanosockets, .)")
	rootCmd.PersistentFlags().Bool("debug", false, "debug mode")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(file)
		if err != nil {
			return err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Log.Level = string(logger.DebugLevel)
		}
		a.cfg = cfg

		if a.log, err = cfg.Logger(cmd.Name()); err != nil {
			return err
		}

		if cfg.Metrics.Addr != "" {
			metrics.Enable(true)
			if a.svc, err = metrics.NewService(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				return err
			}
			go func() {
				if err := a.svc.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Warnf("metrics: %v", err)
				}
			}()
			a.log.Infof("metrics on http://%s%s", a.svc.Addr(), cfg.Metrics.Path)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if a.svc != nil {
			return a.svc.Close()
		}
		return nil
	}

	rootCmd.AddCommand(
		newEchoServerCommand(a),
		newEchoClientCommand(a),
		newResolveCommand(a),
		newReverseCommand(a),
		newOptionsCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}
