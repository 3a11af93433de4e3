package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatusResult summarizes the local database state.
type StatusResult struct {
	Path    string `json:"path"`
	Total   int    `json:"total"`
	Pending int    `json:"pending"`
	Sent    int    `json:"sent"`
}

// Text renders the operator-facing summary.
func (s StatusResult) Text() string {
	return fmt.Sprintf(
		"Database: %s\nTotal rows: %d\nSent to server: %d\nPending: %d\n",
		s.Path, s.Total, s.Sent, s.Pending,
	)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local database counts",
		Long: `Status reports how many records the local database holds and how many
still await delivery. It contacts neither the terminal nor the central
service.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := formatterFor(opts, cmd)

	rt, err := openRuntime(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	total, err := rt.st.Count(ctx)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error())
		return WrapExitError(ExitCommandError, "count records", err)
	}
	pending, err := rt.st.CountUnsent(ctx)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error())
		return WrapExitError(ExitCommandError, "count pending records", err)
	}

	return f.Success(StatusResult{
		Path:    rt.cfg.Store.Path,
		Total:   int(total),
		Pending: int(pending),
		Sent:    int(total - pending),
	})
}
