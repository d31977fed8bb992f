package download

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytfetch/internal/model"
)

func TestTotalSize(t *testing.T) {
	tests := []struct {
		name     string
		info     *model.MediaInfo
		expected int64
	}{
		{"nil", nil, 0},
		{"top level", &model.MediaInfo{Filesize: 1000}, 1000},
		{"top level approx", &model.MediaInfo{FilesizeApprox: 900}, 900},
		{"unknown", &model.MediaInfo{}, 0},
		{
			"requested formats",
			&model.MediaInfo{
				Filesize: 5,
				RequestedFormats: []model.FormatInfo{
					{Filesize: 60000000},
					{FilesizeApprox: 40000000},
				},
			},
			100000000,
		},
		{
			"requested format with unknown size",
			&model.MediaInfo{
				RequestedFormats: []model.FormatInfo{
					{Filesize: 60},
					{},
				},
			},
			60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TotalSize(tt.info))
		})
	}
}

func TestMetadataProbe(t *testing.T) {
	log, _ := test.NewNullLogger()

	t.Run("success", func(t *testing.T) {
		fx := &fakeExtractor{info: &model.MediaInfo{
			Title:            "Clip",
			RequestedFormats: []model.FormatInfo{{Filesize: 10}, {Filesize: 5}},
		}}
		p := NewMetadataProbe(fx, NewThrottleManager(time.Second, 2, 3), log)

		total, title, err := p.Probe(context.Background(), "u", model.DownloadOptions{ConcurrentFragments: 4, OutputTemplate: "x"})
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Equal(t, "Clip", title)

		require.Len(t, fx.probeOpts, 1)
		assert.True(t, fx.probeOpts[0].Simulate)
		assert.Zero(t, fx.probeOpts[0].ConcurrentFragments)
	})

	t.Run("throttled", func(t *testing.T) {
		fx := &fakeExtractor{probeErrs: []error{errors.New("HTTP Error 429: Too Many Requests")}}
		tm := NewThrottleManager(time.Second, 2, 3)
		p := NewMetadataProbe(fx, tm, log)

		_, _, err := p.Probe(context.Background(), "u", model.DownloadOptions{})
		assert.ErrorIs(t, err, ErrThrottled)
		assert.True(t, tm.State().IsThrottled)
		assert.Equal(t, 1, tm.State().RetryCount)
	})

	t.Run("other error is soft", func(t *testing.T) {
		fx := &fakeExtractor{probeErrs: []error{errors.New("Video unavailable")}}
		tm := NewThrottleManager(time.Second, 2, 3)
		p := NewMetadataProbe(fx, tm, logrus.New())

		total, title, err := p.Probe(context.Background(), "u", model.DownloadOptions{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Equal(t, model.UnknownTitle, title)
		assert.False(t, tm.State().IsThrottled)
	})

	t.Run("empty title", func(t *testing.T) {
		fx := &fakeExtractor{info: &model.MediaInfo{Filesize: 3}}
		p := NewMetadataProbe(fx, nil, log)

		total, title, err := p.Probe(context.Background(), "u", model.DownloadOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, model.UnknownTitle, title)
	})
}
