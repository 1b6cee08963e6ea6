package status

import (
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/file"
	"bitbucket.org/airenas/subtitler/internal/pkg/gemini"
	"bitbucket.org/airenas/subtitler/internal/pkg/lock"
	"bitbucket.org/airenas/subtitler/internal/pkg/mongo"
	"bitbucket.org/airenas/subtitler/internal/pkg/orchestrator"
	"bitbucket.org/airenas/subtitler/internal/pkg/rabbit"
	"bitbucket.org/airenas/subtitler/internal/pkg/result"
	"bitbucket.org/airenas/subtitler/internal/pkg/transcript"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

var appName = "Subtitler Status Service"

var rootCmd = &cobra.Command{
	Use:   "statusService",
	Short: appName,
	Long:  `HTTP server to check job status and translate completed transcripts`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.AddPortFlag(rootCmd, 8000)
	cmdapp.SetDefaults(map[string]interface{}{
		"port":                  8000,
		"storage.type":          "file",
		"fileStorage.path":      "/data/",
		"translator.url":        "https://generativelanguage.googleapis.com/v1beta",
		"translator.model":      gemini.DefaultModel,
		"translator.timeout":    "5m",
		"translation.workers":   orchestrator.DefaultWorkers,
		"translation.batchSize": 50,
		"lock.ttl":              lock.DefaultTTL.String(),
	})
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := &ServiceData{}
	data.health = healthcheck.NewHandler()
	var err error
	data.metrics, err = newMetrics()
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	store, closeFunc, err := initStore(data.health)
	cmdapp.CheckOrPanic(err, "Can't init storage")
	defer closeFunc()

	detector, err := transcript.NewDetector(store)
	cmdapp.CheckOrPanic(err, "Can't init detector")
	loader, err := transcript.NewLoader(store)
	cmdapp.CheckOrPanic(err, "Can't init loader")
	locker, err := lock.NewLocker(store, cmdapp.Config.GetDuration("lock.ttl"))
	cmdapp.CheckOrPanic(err, "Can't init locker")
	materializer, err := result.NewMaterializer(store)
	cmdapp.CheckOrPanic(err, "Can't init materializer")
	data.ResultReader = materializer

	var translator orchestrator.Translator
	tc, err := gemini.NewClient()
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't init translator, service is degraded"))
		trErr := err
		data.health.AddReadinessCheck("translator", func() error { return trErr })
	} else {
		translator = tc
	}

	data.hub = newConnHub()
	notifiers := []orchestrator.Notifier{data.hub}
	if cmdapp.Config.GetString("messageServer.url") != "" {
		msgChannelProvider, err := rabbit.NewChannelProvider()
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
		defer msgChannelProvider.Close()
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))
		notifiers = append(notifiers, newEventSender(rabbit.NewSender(msgChannelProvider)))
	}

	orch, err := orchestrator.New(orchestrator.Data{Detector: detector, Loader: loader, Locker: locker,
		Materializer: materializer, Translator: translator,
		Semaphore: semaphore.NewWeighted(int64(cmdapp.Config.GetInt("translation.workers"))),
		BatchSize: cmdapp.Config.GetInt("translation.batchSize"), Notifiers: notifiers})
	cmdapp.CheckOrPanic(err, "Can't init orchestrator")
	data.StatusProvider = orch
	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
	cmdapp.Log.Info("Waiting for running translations")
	orch.Wait()
}

func initStore(health healthcheck.Handler) (blob.Store, func(), error) {
	st := cmdapp.Config.GetString("storage.type")
	cmdapp.Log.Infof("Storage: %s", st)
	switch st {
	case "mongo":
		sp, err := mongo.NewSessionProvider()
		if err != nil {
			return nil, nil, err
		}
		health.AddLivenessCheck("mongo", healthcheck.Async(sp.Healthy, 10*time.Second))
		res, err := mongo.NewBlobStore(sp)
		return res, sp.Close, err
	case "file":
		res, err := file.NewStore(cmdapp.Config.GetString("fileStorage.path"))
		if err != nil {
			return nil, nil, err
		}
		health.AddLivenessCheck("fs", res.Healthy)
		return res, func() {}, nil
	case "memory":
		cmdapp.Log.Warn("Memory storage is not shared among processes")
		return blob.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, errors.Errorf("unknown storage.type '%s'", st)
}
