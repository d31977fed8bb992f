package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytget/ytfetch/internal/download"
	"github.com/ytget/ytfetch/internal/model"
	"github.com/ytget/ytfetch/internal/platform"
)

var (
	errNoURL      = errors.New("no URL given")
	errJobAborted = errors.New("download aborted")
	errJobsFailed = errors.New("some downloads failed")
)

func (a *app) getCommand() *cobra.Command {
	var (
		quality       string
		fromClipboard bool
		reveal        bool
	)

	cmd := &cobra.Command{
		Use:   "get [url]",
		Short: "Download a single video or its audio track",
		Long:  `get downloads one video at the requested quality (e.g. 720, 1080p, 4k, hd) or, with --quality audio, its audio track as mp3.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := a.resolveURL(args, fromClipboard)
			if err != nil {
				return err
			}
			if quality == "" {
				quality = a.settings.General.Quality
			}

			return a.withJobLock(cmd, func(ctx context.Context, orch *download.Orchestrator) error {
				controls := readControls(a.in)
				r := NewRenderer(cmd.OutOrStdout(), DefaultBarWidth)

				res := a.runOne(ctx, orch, model.DownloadRequest{URL: url, Quality: model.ParseQuality(quality)}, controls, r)
				if res.OK && reveal {
					if err := a.openFolder(orch.DownloadDir()); err != nil {
						a.log.WithError(err).Warn("Failed to open download folder")
					}
				}
				return resultError(res)
			})
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "video height (720, 1080p, 4k, hd) or audio")
	cmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the URL from the clipboard")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "open the download folder when done")
	return cmd
}

// resolveURL returns the argument or, if requested, the clipboard text
func (a *app) resolveURL(args []string, fromClipboard bool) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if !fromClipboard {
		return "", errNoURL
	}
	text, err := a.readClipboard()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	url := strings.TrimSpace(text)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("clipboard does not contain a URL")
	}
	return url, nil
}

// withJobLock prepares the download directory, takes the job lock and runs
// fn with a context cancelled on SIGINT/SIGTERM.
func (a *app) withJobLock(cmd *cobra.Command, fn func(ctx context.Context, orch *download.Orchestrator) error) error {
	dir, err := a.settings.ResolveDownloadDir()
	if err != nil {
		return err
	}

	lock, err := platform.AcquireJobLock(dir)
	if err != nil {
		if errors.Is(err, platform.ErrJobRunning) {
			return fmt.Errorf("%w (lock file %s)", err, dir)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.log.WithError(err).Warn("Failed to release job lock")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := download.NewOrchestrator(a.newExtractor(a.log), a.settings, dir, a.log)
	return fn(ctx, orch)
}

// runOne runs a single request with live rendering and stdin controls. On
// abort the partial files are removed.
func (a *app) runOne(ctx context.Context, orch *download.Orchestrator, req model.DownloadRequest, controls <-chan control, r *Renderer) download.Result {
	r.Info("URL", req.URL)
	r.Info("Quality", req.Quality.String())
	r.Stage(model.StageProbing)

	job := orch.Start(ctx, req, r.Progress, r.Stage)
	driveJob(job, controls, r)
	res := job.Wait()
	r.Summary(res, job.Snapshot())

	if res.Stage == model.StageAborted && res.Path != "" {
		path := res.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(orch.DownloadDir(), path)
		}
		removed, err := platform.CleanupPartial(path)
		if err != nil {
			a.log.WithError(err).Warn("Failed to remove partial files")
		}
		if len(removed) > 0 {
			r.Info("Cleaned", fmt.Sprintf("%d partial file(s)", len(removed)))
		}
	}
	return res
}

func resultError(res download.Result) error {
	switch {
	case res.OK:
		return nil
	case res.Stage == model.StageAborted:
		return errJobAborted
	case res.Err != nil:
		return res.Err
	}
	return fmt.Errorf("download ended in stage %s", res.Stage)
}
