package cli

import (
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull from the terminal, then deliver the backlog",
		Long: `Sync is the full pass: read the terminal, persist new events, then
deliver everything still pending. With sync.clear_device_log enabled the
terminal buffer is drained after a pass that delivered at least one
record.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
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
	del, err := rt.deliverer()
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}

	rep, err := rt.runner(src, del).Run(cmd.Context())
	if err != nil {
		return reportRunError(f, ErrCodeGeneric, err)
	}
	return emit(f, rep)
}
