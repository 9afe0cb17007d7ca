package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/widgetsync/internal/dbus"
	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/tui"
)

var watchOpts struct {
	provider string
	plain    bool
	format   string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch refresh requests sent to widgets",
	Long: `Watch the Refresh signals widget renderers receive on the session bus.

By default an interactive view lists requests as they arrive and shows the
current widget state. With --plain each request is printed on one line,
which suits piping into other tools.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       View request details
  c           Copy request as YAML
  r           Refresh all widgets
  p           Pause
  x           Clear list
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.provider, "provider", "p", "",
		"Only show requests for this provider")
	watchCmd.Flags().BoolVar(&watchOpts.plain, "plain", false,
		"Print requests line by line instead of the interactive view")
	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "plain",
		"Line format with --plain (plain, json, yaml)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	var provider model.Provider
	if watchOpts.provider != "" {
		p, err := model.ParseProvider(watchOpts.provider)
		if err != nil {
			return err
		}
		provider = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifications, err := dbus.NewListener(nil, logger).Listen(ctx, provider)
	if err != nil {
		return err
	}

	if watchOpts.plain {
		f, err := newFormatter(watchOpts.format, "", true)
		if err != nil {
			return err
		}
		for n := range notifications {
			if err := f.FormatNotification(cmd.OutOrStdout(), n); err != nil {
				return err
			}
		}
		return nil
	}

	s, err := getSession()
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Notifications: notifications,
		API:           s.api,
		Provider:      provider,
	})
}
