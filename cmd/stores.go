package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(storesCmd)
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List the stores enabled in the current configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, err := setup()
		if err != nil {
			return err
		}
		defer engine.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Name"})
		for _, store := range engine.Stores() {
			t.AppendRow(table.Row{store.Key, store.Name})
		}
		t.Render()
		return nil
	},
}
