package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sapp/internal/model"
	"github.com/roach88/sapp/internal/navigate"
	"github.com/roach88/sapp/internal/store"
)

// LeavesOptions holds flags for the leaves command.
type LeavesOptions struct {
	*RootOptions
	Database string
	Kind     string // empty lists every category
}

// NewLeavesCommand creates the leaves command.
func NewLeavesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeavesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "leaves",
		Short: "List registered sources, sinks and features",
		Long: `List the leaf registry of a trace database, ordered by id.

Examples:
  sapp leaves --db ./sapp.db
  sapp leaves --db ./sapp.db --kind sink --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaves(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "leaf kind (source|sink|feature)")

	return cmd
}

func runLeaves(opts *LeavesOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	kinds := model.LeafKinds
	if opts.Kind != "" {
		kind, err := model.ParseLeafKind(opts.Kind)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
		kinds = []model.LeafKind{kind}
	}

	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	mappings, err := navigate.LoadLeafMappings(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load leaves", err)
	}

	leaves := []model.Leaf{}
	for _, kind := range kinds {
		leaves = append(leaves, mappings.Leaves(kind)...)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(leaves, func(w io.Writer) error {
		if len(leaves) == 0 {
			_, err := fmt.Fprintln(w, "(no leaves)")
			return err
		}
		for _, leaf := range leaves {
			if _, err := fmt.Fprintf(w, "%-8s #%d %s\n", leaf.Kind, leaf.ID, leaf.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
