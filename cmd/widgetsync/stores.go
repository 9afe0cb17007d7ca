package main

import (
	"github.com/spf13/cobra"
)

var storesOpts struct {
	format string
}

var storesCmd = &cobra.Command{
	Use:   "stores [NAME]",
	Short: "Dump the named stores widgets read",
	Long: `Print the entries of one named store, or of every store on disk.

Stores are read directly from the data directory, also with --remote.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStores,
}

func init() {
	rootCmd.AddCommand(storesCmd)

	storesCmd.Flags().StringVarP(&storesOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
}

func runStores(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(storesOpts.format, "", false)
	if err != nil {
		return err
	}
	s, err := getSession()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names, err = s.accessor.Names()
		if err != nil {
			return err
		}
	}

	for _, name := range names {
		entries, err := s.accessor.Snapshot(name)
		if err != nil {
			return err
		}
		if err := f.FormatStore(cmd.OutOrStdout(), name, entries); err != nil {
			return err
		}
	}
	return nil
}
