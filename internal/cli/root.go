package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ytget/ytfetch/internal/config"
	"github.com/ytget/ytfetch/internal/download"
	"github.com/ytget/ytfetch/internal/platform"
)

// AppName is the binary name
const AppName = "ytfetch"

// app holds the state shared by all commands of one invocation
type app struct {
	version string

	configPath string
	logLevel   string
	dirFlag    string

	settings *config.Settings
	log      *logrus.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	newExtractor      func(log logrus.FieldLogger) download.Extractor
	newPlaylistParser func() *platform.PlaylistParser
	readClipboard     func() (string, error)
	openFolder        func(dir string) error
}

func newApp(version string) *app {
	return &app{
		version: version,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		log:     logrus.New(),
		newExtractor: func(log logrus.FieldLogger) download.Extractor {
			return platform.NewYTDLPExtractor(log)
		},
		newPlaylistParser: platform.NewPlaylistParser,
		readClipboard:     clipboard.ReadAll,
		openFolder:        platform.OpenFolder,
	}
}

// Execute runs the root command
func Execute(version string) error {
	return newApp(version).rootCommand().Execute()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           AppName,
		Short:         "Download video and audio through yt-dlp",
		Long:          `ytfetch downloads media with yt-dlp, merges video and audio streams, retries rate-limited requests and shows live progress. Type p + Enter to pause or resume, r + Enter to resume, q + Enter to abort.`,
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default "+config.GetSettingsPath()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&a.dirFlag, "dir", "d", "", "download directory")

	root.AddCommand(
		a.getCommand(),
		a.playlistCommand(),
		a.configCommand(),
		a.cleanCommand(),
	)
	return root
}

// setup loads settings and configures logging
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		a.configPath = config.GetSettingsPath()
	}
	settings, err := config.LoadSettingsFrom(a.configPath)
	if err != nil {
		return err
	}
	a.settings = settings

	if a.dirFlag != "" {
		a.settings.General.DownloadDir = a.dirFlag
	}

	level := a.settings.General.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(parsed)
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
