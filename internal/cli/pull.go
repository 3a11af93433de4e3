package cli

import (
	"github.com/spf13/cobra"
)

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Read the terminal and persist new events locally",
		Long: `Pull connects to the attendance terminal, reads its buffered events
and stores the new ones in the local database. Nothing is delivered
upstream; run send or sync for that.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(rootOpts, cmd)
		},
	}
}

func runPull(opts *RootOptions, cmd *cobra.Command) error {
	f := formatterFor(opts, cmd)

	rt, err := openRuntime(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}
	defer rt.Close()

	src, err := rt.source()
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}

	rep, err := rt.runner(src, nil).Pull(cmd.Context())
	if err != nil {
		return reportRunError(f, ErrCodeDevice, err)
	}
	return emit(f, rep)
}
