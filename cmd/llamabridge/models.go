package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"llamabridge/internal/registry"
	"llamabridge/pkg/types"
)

func newModelsCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List *.gguf models in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := registry.LoadDir(o.ModelsDir)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			renderModels(cmd.OutOrStdout(), models)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderModels(w io.Writer, models []types.Model) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Name", "Family", "Quant", "Size"})
	for _, m := range models {
		tw.AppendRow(table.Row{m.ID, m.Name, m.Family, m.Quant, humanBytes(m.SizeBytes)})
	}
	tw.AppendFooter(table.Row{"", "", "", "Total", len(models)})
	tw.Render()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
