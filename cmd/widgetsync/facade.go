package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var refreshOpts struct {
	all bool
}

var saveCoordsCmd = &cobra.Command{
	Use:   "save-coords LAT LNG",
	Short: "Save the user's coordinates for the widgets",
	Long: `Save a latitude/longitude pair into every store the widgets read it
from, stamp the update time and refresh the coordinate providers.

Negative values need a "--" separator so they are not read as flags:

  widgetsync save-coords -- -33.86 151.21`,
	Args: cobra.ExactArgs(2),
	RunE: runSaveCoords,
}

var setDataCmd = &cobra.Command{
	Use:   "set-data JSON|-",
	Short: "Replace the serialized widget data",
	Long: `Store the widget data payload (typically JSON) and refresh the data
providers. The payload is stored verbatim; use "-" to read it from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetData,
}

var setThemeCmd = &cobra.Command{
	Use:   "set-theme JSON|-",
	Short: "Store the widget theme",
	Long: `Store the theme payload verbatim and refresh the theme providers.
Use "-" to read it from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetTheme,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask placed widgets to redraw",
	Long: `Ask the placed widgets of the refresh provider to redraw.
With --all every provider is asked.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Report whether any probe-provider widget is placed",
	Long: `Print true when at least one widget of the probe provider is placed.
Any failure reads as false.`,
	Args: cobra.NoArgs,
	RunE: runActive,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the primary widget store",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(saveCoordsCmd, setDataCmd, setThemeCmd, refreshCmd, activeCmd, clearCmd)

	refreshCmd.Flags().BoolVarP(&refreshOpts.all, "all", "a", false,
		"Refresh every provider")
}

func runSaveCoords(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q: %w", args[0], err)
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}

	s, err := getSession()
	if err != nil {
		return err
	}
	_, err = s.api.SaveCoordinates(lat, lng)
	return err
}

func runSetData(cmd *cobra.Command, args []string) error {
	data, err := readPayload(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	s, err := getSession()
	if err != nil {
		return err
	}
	_, err = s.api.UpdateWidgetData(data)
	return err
}

func runSetTheme(cmd *cobra.Command, args []string) error {
	theme, err := readPayload(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	s, err := getSession()
	if err != nil {
		return err
	}
	_, err = s.api.UpdateTheme(theme)
	return err
}

func runRefresh(cmd *cobra.Command, args []string) error {
	s, err := getSession()
	if err != nil {
		return err
	}
	if refreshOpts.all {
		_, err = s.api.ForceRefreshAll()
	} else {
		_, err = s.api.ForceRefresh()
	}
	return err
}

func runActive(cmd *cobra.Command, args []string) error {
	s, err := getSession()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), s.api.IsWidgetActive())
	return err
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := getSession()
	if err != nil {
		return err
	}
	_, err = s.api.ClearWidgetData()
	return err
}

// readPayload returns arg, or all of stdin when arg is "-".
// A single trailing newline from stdin is dropped.
func readPayload(stdin io.Reader, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
