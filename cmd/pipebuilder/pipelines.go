package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/session"
)

var pipelinesCmd = &cobra.Command{
	Use:   "pipelines",
	Short: "Manage stored pipeline recipes",
	Long:  `List, show, store and remove the recipes kept in the configured store (use --store redis).`,
}

var pipelinesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored pipelines",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := pipelineSessions(cmd)
		if err != nil {
			return err
		}
		return runPipelinesList(cmd.Context(), sessions, cmd.OutOrStdout())
	},
}

var pipelinesShowCmd = &cobra.Command{
	Use:   "show <pipeline-id>",
	Short: "Print a stored recipe as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := pipelineSessions(cmd)
		if err != nil {
			return err
		}
		return runPipelinesShow(cmd.Context(), sessions, args[0], cmd.OutOrStdout())
	},
}

var pipelinesPutCmd = &cobra.Command{
	Use:   "put <pipeline-id> <recipe.yaml>",
	Short: "Validate a recipe file and store it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, cat, err := pipelineSessions(cmd)
		if err != nil {
			return err
		}
		recipe, err := readRecipe(args[1])
		if err != nil {
			return err
		}
		return runPipelinesPut(cmd.Context(), sessions, cat, args[0], recipe, cmd.OutOrStdout())
	},
}

var pipelinesRmCmd = &cobra.Command{
	Use:   "rm <pipeline-id>...",
	Short: "Remove one or more pipelines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := pipelineSessions(cmd)
		if err != nil {
			return err
		}
		return runPipelinesRemove(cmd.Context(), sessions, args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(pipelinesCmd)
	pipelinesCmd.AddCommand(pipelinesLsCmd)
	pipelinesCmd.AddCommand(pipelinesShowCmd)
	pipelinesCmd.AddCommand(pipelinesPutCmd)
	pipelinesCmd.AddCommand(pipelinesRmCmd)
}

func pipelineSessions(cmd *cobra.Command) (*session.Manager, *catalog.Catalog, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := a.sessions()
	if err != nil {
		return nil, nil, err
	}
	return sessions, a.catalog, nil
}

func runPipelinesList(ctx context.Context, sessions *session.Manager, w io.Writer) error {
	ids, err := sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list pipelines: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No pipelines found.")
		return nil
	}
	fmt.Fprintln(w, "Pipelines:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

func runPipelinesShow(ctx context.Context, sessions *session.Manager, id string, w io.Writer) error {
	recipe, err := sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load pipeline '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func runPipelinesPut(ctx context.Context, sessions *session.Manager, cat *catalog.Catalog, id string, recipe *domain.Recipe, w io.Writer) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}
	if err := runValidate(ctx, cat, recipe, w); err != nil {
		return err
	}
	if err := sessions.Save(ctx, id, recipe); err != nil {
		return fmt.Errorf("save pipeline '%s': %w", id, err)
	}
	fmt.Fprintf(w, "Stored pipeline '%s'\n", id)
	return nil
}

func runPipelinesRemove(ctx context.Context, sessions *session.Manager, ids []string, w io.Writer) error {
	var failed int
	for _, id := range ids {
		if err := sessions.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed pipeline '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pipelines could not be removed", failed, len(ids))
	}
	return nil
}
