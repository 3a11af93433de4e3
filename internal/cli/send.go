package cli

import (
	"github.com/spf13/cobra"
)

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Deliver pending records to the central service",
		Long: `Send walks the local backlog of undelivered records oldest-first and
submits each one to the central service. The terminal is not contacted.
Records that fail stay pending and are retried on the next run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(rootOpts, cmd)
		},
	}
}

func runSend(opts *RootOptions, cmd *cobra.Command) error {
	f := formatterFor(opts, cmd)

	rt, err := openRuntime(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}
	defer rt.Close()

	del, err := rt.deliverer()
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error())
		return err
	}

	rep, err := rt.runner(nil, del).Send(cmd.Context())
	if err != nil {
		return reportRunError(f, ErrCodeDelivery, err)
	}
	return emit(f, rep)
}
