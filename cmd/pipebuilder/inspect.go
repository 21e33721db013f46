package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder/internal/presentation/tui"
	"github.com/aretw0/pipebuilder/pkg/catalog"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [definition]",
	Short: "Show the configuration fields and outputs of a definition",
	Long:  `Without arguments, lists the available definitions.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return runList(cmd.Context(), a.catalog, cmd.OutOrStdout())
		}
		return runInspect(cmd.Context(), a.catalog, args[0], tui.NewRenderer(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runList(ctx context.Context, cat *catalog.Catalog, w io.Writer) error {
	names, err := cat.Names(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func runInspect(ctx context.Context, cat *catalog.Catalog, name string, render func(string) (string, error), w io.Writer) error {
	entry := cat.Entry(ctx, name)
	if entry == nil {
		return fmt.Errorf("definition %q not found", name)
	}
	out, err := render(tui.DefinitionMarkdown(entry))
	if err != nil {
		return fmt.Errorf("render definition: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}
