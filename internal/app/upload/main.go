package upload

import (
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/rabbit"
	"bitbucket.org/airenas/subtitler/internal/pkg/saver"
	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uploadService",
	Short: "Subtitler Upload Audio Chunk Service",
	Long:  `HTTP server to listen and upload audio chunks for transcription`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.AddPortFlag(rootCmd, 8000)
	cmdapp.SetDefaults(map[string]interface{}{
		"port":             8000,
		"fileStorage.path": "/data/",
	})
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting uploadService")
	data := &ServiceData{}
	var err error
	data.health = healthcheck.NewHandler()
	data.metrics, err = newMetrics()
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	fs, err := saver.NewLocalFileSaver(cmdapp.Config.GetString("fileStorage.path"))
	cmdapp.CheckOrPanic(err, "Can't init file storage")
	data.FileSaver = fs

	if cmdapp.Config.GetString("messageServer.url") != "" {
		msgChannelProvider, err := rabbit.NewChannelProvider()
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
		defer msgChannelProvider.Close()
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))
		data.MessageSender = rabbit.NewSender(msgChannelProvider)
	} else {
		cmdapp.Log.Warn("No messageServer.url, chunks will not be queued for transcription")
	}
	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}
