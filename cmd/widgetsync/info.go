package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/widgetsync/internal/adapter/output"
)

var infoOpts struct {
	format   string
	template string
	noColor  bool
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the widgets will find in storage",
	Long: `Show whether coordinates are stored, when widget data was last
updated, the stored theme and how many widgets of the probe provider are placed.

Plain output accepts a Go template over the info fields:

  widgetsync info --template '{{.WidgetCount}} widgets, updated {{reltime .LastUpdate}}'`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Print the stored coordinates",
	Args:  cobra.NoArgs,
	RunE:  runCoords,
}

func init() {
	rootCmd.AddCommand(infoCmd, coordsCmd)

	for _, c := range []*cobra.Command{infoCmd, coordsCmd} {
		c.Flags().StringVarP(&infoOpts.format, "format", "f", string(output.FormatPlain),
			"Output format (plain, json, yaml)")
		c.Flags().BoolVar(&infoOpts.noColor, "no-color", false,
			"Disable styled plain output")
	}
	infoCmd.Flags().StringVar(&infoOpts.template, "template", "",
		"Go template for plain output")
}

// newFormatter builds the formatter selected by the shared output flags.
func newFormatter(format, template string, noColor bool) (output.Formatter, error) {
	ft, err := output.ParseFormatType(format)
	if err != nil {
		return nil, err
	}
	opts := output.DefaultFormatterOptions()
	opts.Template = template
	opts.Color = !noColor
	return output.NewFormatter(ft, opts), nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(infoOpts.format, infoOpts.template, infoOpts.noColor)
	if err != nil {
		return err
	}
	s, err := getSession()
	if err != nil {
		return err
	}

	info, err := s.api.GetWidgetInfo()
	if err != nil {
		return err
	}
	return f.FormatInfo(cmd.OutOrStdout(), info)
}

func runCoords(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(infoOpts.format, "", infoOpts.noColor)
	if err != nil {
		return err
	}
	s, err := getSession()
	if err != nil {
		return err
	}

	coords, err := s.api.GetCoordinates()
	if err != nil {
		return err
	}
	return f.FormatCoordinates(cmd.OutOrStdout(), coords)
}
