package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder"
	render "github.com/aretw0/pipebuilder/internal/presentation/graph"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <recipe.yaml>",
	Short: "Export the pipeline graph visualization",
	Long: `Composes the graph of a recipe from its references and prints it as a Mermaid
flowchart or a Graphviz DOT digraph. Components failing validation are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		recipe, err := readRecipe(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return runGraph(cmd.Context(), a.catalog, recipe, format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: 'mermaid' or 'dot'")
}

func runGraph(ctx context.Context, cat *catalog.Catalog, recipe *domain.Recipe, format string, w io.Writer) error {
	b, err := pipebuilder.New("", pipebuilder.WithCatalog(cat))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.LoadRecipe(ctx, recipe); err != nil {
		return err
	}

	overlay := &render.GraphOverlay{}
	for id := range b.Validate(ctx) {
		overlay.InvalidNodes = append(overlay.InvalidNodes, id)
	}
	sort.Strings(overlay.InvalidNodes)

	switch format {
	case "mermaid":
		_, err = fmt.Fprint(w, render.GenerateMermaid(b.Graph(), overlay))
	case "dot":
		out, derr := render.GenerateDOT(b.Graph(), overlay)
		if derr != nil {
			return derr
		}
		_, err = fmt.Fprint(w, out)
	default:
		return fmt.Errorf("unknown format %q, supported: mermaid, dot", format)
	}
	return err
}
