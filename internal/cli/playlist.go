package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ytget/ytfetch/internal/download"
	"github.com/ytget/ytfetch/internal/model"
)

func (a *app) playlistCommand() *cobra.Command {
	var quality string

	cmd := &cobra.Command{
		Use:   "playlist <url>",
		Short: "Download every video of a playlist, one after another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if quality == "" {
				quality = a.settings.General.Quality
			}
			q := model.ParseQuality(quality)

			return a.withJobLock(cmd, func(ctx context.Context, orch *download.Orchestrator) error {
				r := NewRenderer(cmd.OutOrStdout(), DefaultBarWidth)

				r.Info("Playlist", args[0])
				playlist, err := a.newPlaylistParser().ParsePlaylist(ctx, args[0])
				if err != nil {
					return err
				}
				if playlist.TotalVideos == 0 {
					r.Warn("Playlist is empty")
					return nil
				}

				return a.runPlaylist(ctx, orch, playlist, q, r)
			})
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "video height (720, 1080p, 4k, hd) or audio")
	return cmd
}

// runPlaylist downloads the pending videos sequentially. An abort stops
// the remaining videos.
func (a *app) runPlaylist(ctx context.Context, orch *download.Orchestrator, playlist *model.Playlist, q model.Quality, r *Renderer) error {
	log := a.log.WithField("playlist", playlist.ID)
	controls := readControls(a.in)

	playlist.UpdateStatus(model.PlaylistStatusDownloading)
	log.WithField("videos", playlist.TotalVideos).Info("Playlist download started")

	pending := playlist.GetPendingVideos()
	aborted := false
	for i, video := range pending {
		if ctx.Err() != nil {
			aborted = true
			break
		}

		r.Header(fmt.Sprintf("[%d/%d] %s", i+1, len(pending), video.Title))
		res := a.runOne(ctx, orch, model.DownloadRequest{URL: video.URL, Quality: q}, controls, r)

		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		playlist.UpdateVideoResult(video.ID, model.VideoStatusFromStage(res.Stage), res.Path, errMsg)

		if res.Stage == model.StageAborted {
			aborted = true
			break
		}
	}

	done := len(playlist.GetCompletedVideos())
	switch {
	case aborted:
		playlist.UpdateStatus(model.PlaylistStatusError)
		playlist.Error = errJobAborted.Error()
	case playlist.HasErrors():
		playlist.UpdateStatus(model.PlaylistStatusError)
		playlist.Error = errJobsFailed.Error()
	default:
		playlist.UpdateStatus(model.PlaylistStatusCompleted)
	}

	r.Header(fmt.Sprintf("Playlist %q: %d/%d completed (%.0f%%)", playlist.Title, done, playlist.TotalVideos, playlist.GetDownloadProgress()))
	log.WithFields(logrus.Fields{
		"completed": done,
		"status":    playlist.Status,
	}).Info("Playlist download finished")

	if aborted {
		return errJobAborted
	}
	if playlist.HasErrors() {
		return errJobsFailed
	}
	return nil
}
