package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"llamabridge/internal/common/fsutil"
	"llamabridge/internal/gguf"
)

func newInfoCmd(o *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "info <file.gguf>",
		Short: "Print GGUF header metadata of a model file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := fsutil.ResolveReadable(args[0])
			if err != nil {
				return err
			}
			md, err := gguf.ReadFile(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			renderInfo(cmd.OutOrStdout(), p, md, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also list every scalar metadata key")
	return cmd
}

func renderInfo(w io.Writer, path string, md gguf.Metadata, all bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRows([]table.Row{
		{"path", path},
		{"version", md.Version},
		{"architecture", md.Architecture},
		{"name", md.Name},
		{"file_type", md.FileType},
		{"tensors", md.TensorCount},
		{"layers", md.BlockCount},
		{"context_length", md.ContextLength},
		{"parameters", md.ParamCount},
	})
	if all && len(md.KV) > 0 {
		keys := make([]string, 0, len(md.KV))
		for k := range md.KV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tw.AppendSeparator()
		for _, k := range keys {
			tw.AppendRow(table.Row{k, md.KV[k]})
		}
	}
	tw.Render()
}
