package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/attsync/internal/config"
	"github.com/roach88/attsync/internal/device"
	"github.com/roach88/attsync/internal/pipeline"
	"github.com/roach88/attsync/internal/remote"
	"github.com/roach88/attsync/internal/store"
)

// runtime holds the dependencies every command needs: resolved config,
// timezone and an open store.
type runtime struct {
	cfg config.Config
	loc *time.Location
	st  *store.Store
	log *slog.Logger
}

// openRuntime loads configuration and opens the local database. Callers
// must Close.
func openRuntime(opts *RootOptions) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolve timezone", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open local database", err)
	}

	return &runtime{cfg: cfg, loc: loc, st: st, log: slog.Default()}, nil
}

func (rt *runtime) Close() {
	rt.st.Close()
}

// source builds the terminal collector. Pull and sync require a host.
func (rt *runtime) source() (pipeline.Source, error) {
	if rt.cfg.Device.Host == "" {
		return nil, NewExitError(ExitCommandError, "no terminal host configured (device.host or ATTSYNC_DEVICE_HOST)")
	}
	transport := device.NewJSONLines(rt.cfg.Device.Host, rt.cfg.Device.Port, rt.cfg.Device.Timeout())
	return device.NewCollector(transport, device.Config{
		Retries:        rt.cfg.Device.FetchRetries,
		ReconnectDelay: rt.cfg.Device.ReconnectDelay(),
	}, rt.log), nil
}

// deliverer builds the upstream client. Send and sync require a URL.
func (rt *runtime) deliverer() (pipeline.Deliverer, error) {
	if rt.cfg.Remote.URL == "" {
		return nil, NewExitError(ExitCommandError, "no remote URL configured (remote.url or ATTSYNC_REMOTE_URL)")
	}
	return remote.New(remote.Config{
		Endpoint:    rt.cfg.Remote.URL,
		Secret:      rt.cfg.Remote.Secret,
		MaxAttempts: rt.cfg.Remote.MaxAttempts,
		Timeout:     rt.cfg.Remote.Timeout(),
	}, rt.log), nil
}

// runner assembles the pipeline from the pieces a command needs.
func (rt *runtime) runner(src pipeline.Source, del pipeline.Deliverer) *pipeline.Runner {
	return pipeline.New(rt.st, src, del, pipeline.Config{
		BatchLimit:     rt.cfg.Sync.BatchLimit,
		RecordDelay:    rt.cfg.Sync.RecordDelay(),
		ClearDeviceLog: rt.cfg.Sync.ClearDeviceLog,
	}, rt.loc, rt.log)
}

// formatterFor builds the output formatter writing to the command's stdout.
func formatterFor(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}
}

// reportRunError renders a run failure and converts it to an exit error.
func reportRunError(f *OutputFormatter, code string, err error) error {
	_ = f.Error(code, err.Error())
	return WrapExitError(ExitFailure, "run failed", err)
}

// emit renders a successful report.
func emit(f *OutputFormatter, rep pipeline.Report) error {
	if err := f.Success(rep); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
