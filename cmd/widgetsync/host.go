package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/widgetsync/internal/model"
)

var hostOpts struct {
	format string
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Manage the inventory of placed widgets",
	Long: `Manage the widget inventory the home-screen host keeps.

The inventory records which widgets are placed for each provider. Only
widgets recorded here receive refresh requests. A running widgetsyncd
refreshes every provider when the inventory changes.`,
}

var hostPlaceCmd = &cobra.Command{
	Use:       "place PROVIDER",
	Short:     "Record a newly placed widget and print its id",
	Args:      cobra.ExactArgs(1),
	ValidArgs: model.ProviderNames(model.Providers()),
	RunE:      runHostPlace,
}

var hostRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Forget a placed widget",
	Args:  cobra.ExactArgs(1),
	RunE:  runHostRemove,
}

var hostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List placed widgets by provider",
	Args:  cobra.NoArgs,
	RunE:  runHostList,
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.AddCommand(hostPlaceCmd, hostRemoveCmd, hostListCmd)

	hostListCmd.Flags().StringVarP(&hostOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
}

func runHostPlace(cmd *cobra.Command, args []string) error {
	p, err := model.ParseProvider(args[0])
	if err != nil {
		return err
	}
	s, err := getSession()
	if err != nil {
		return err
	}

	id, err := s.inventory.Place(p)
	if err != nil {
		return err
	}
	logger.Debug("widget placed", "provider", p, "surface", id)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
	return err
}

func runHostRemove(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid widget id %q: %w", args[0], err)
	}
	s, err := getSession()
	if err != nil {
		return err
	}
	return s.inventory.Remove(model.SurfaceID(n))
}

func runHostList(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(hostOpts.format, "", false)
	if err != nil {
		return err
	}
	s, err := getSession()
	if err != nil {
		return err
	}

	surfaces, err := s.inventory.All()
	if err != nil {
		return err
	}
	return f.FormatSurfaces(cmd.OutOrStdout(), surfaces)
}
