package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder"
	"github.com/aretw0/pipebuilder/internal/validator"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
)

// errInvalidPipeline is returned when at least one component fails validation.
var errInvalidPipeline = errors.New("pipeline has invalid components")

var validateCmd = &cobra.Command{
	Use:   "validate <recipe.yaml>",
	Short: "Validate every component of a recipe against its definition",
	Long: `Loads a recipe file (YAML or JSON) and checks each component configuration
against the schema of its definition. Components whose definition is unknown are not checked.`,
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
		return runValidate(cmd.Context(), a.catalog, recipe, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, cat *catalog.Catalog, recipe *domain.Recipe, w io.Writer) error {
	b, err := pipebuilder.New("", pipebuilder.WithCatalog(cat))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.LoadRecipe(ctx, recipe); err != nil {
		return err
	}

	report := validator.ValidateGraph(b.Graph().Nodes, domain.StartNodeID)
	for _, id := range report.Unreachable {
		fmt.Fprintf(w, "warning: %s is not connected to %s\n", id, domain.StartNodeID)
	}
	if err := report.Err(); err != nil {
		return err
	}

	invalid := b.Validate(ctx)
	if len(invalid) == 0 {
		fmt.Fprintln(w, "Pipeline is valid! ✅")
		return nil
	}

	ids := make([]string, 0, len(invalid))
	for id := range invalid {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, e := range invalid[id] {
			fmt.Fprintf(w, "%s: %s: %s\n", id, e.Path, e.Message)
		}
	}
	return fmt.Errorf("%w: %d of %d", errInvalidPipeline, len(invalid), len(recipe.Components))
}
