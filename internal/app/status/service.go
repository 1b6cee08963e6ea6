package status

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"bitbucket.org/airenas/subtitler/internal/pkg/metrics"
	"bitbucket.org/airenas/subtitler/internal/pkg/orchestrator"
	"bitbucket.org/airenas/subtitler/internal/pkg/result"
	"bitbucket.org/airenas/subtitler/internal/pkg/status"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	//StatusProvider answers job status queries
	StatusProvider interface {
		Status(ctx context.Context, jobID string, chunks int) (*status.Result, error)
	}
	//ResultReader returns persisted result documents
	ResultReader interface {
		ReadFile(ctx context.Context, jobID string, kind string) (string, error)
	}
)

type serviceMetric struct {
	statusResponseDur prometheus.ObserverVec
	resultResponseDur prometheus.ObserverVec
}

// ServiceData keeps data required for service work
type ServiceData struct {
	StatusProvider StatusProvider
	ResultReader   ResultReader
	Port           int

	hub     *connHub
	health  healthcheck.Handler
	metrics serviceMetric
}

func newMetrics() (serviceMetric, error) {
	res := serviceMetric{}
	sd := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subtitler",
		Name:      "status_response_duration_seconds",
		Help:      "Status query response duration",
	}, []string{"code", "method"})
	rd := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subtitler",
		Name:      "result_response_duration_seconds",
		Help:      "Result download response duration",
	}, []string{"code", "method"})
	if err := metrics.Register(sd, rd); err != nil {
		return res, err
	}
	res.statusResponseDur, res.resultResponseDur = sd, rd
	return res, nil
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		Handler:           NewRouter(data),
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	gracehttp.SetLogger(log.New(w, "", 0))

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("GET").Path("/check_status/{id}").Handler(instrument(data.metrics.statusResponseDur, statusHandler{data: data}))
	router.Methods("GET").Path("/result/{id}/{file}").Handler(instrument(data.metrics.resultResponseDur, resultHandler{data: data}))
	router.Handle("/subscribe", websocketHandler{data: data})
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

func instrument(o prometheus.ObserverVec, h http.Handler) http.Handler {
	if o == nil {
		return h
	}
	return promhttp.InstrumentHandlerDuration(o, h)
}

type statusHandler struct {
	data *ServiceData
}

func (h statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cmdapp.Log.Infof("Status request for %s from %s", id, r.Host)

	chunks, err := job.ParseInt(r.URL.Query().Get("total_chunks"), "total_chunks")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	res, err := h.data.StatusProvider.Status(r.Context(), id, chunks)
	if err != nil {
		code, msg := errorCode(err)
		http.Error(w, msg, code)
		cmdapp.Log.Error(errors.Wrapf(err, "can't get status for %s", id))
		return
	}
	writeJSON(w, res)
}

func errorCode(err error) (int, string) {
	switch errors.Cause(err) {
	case job.ErrValidation:
		return http.StatusBadRequest, err.Error()
	case orchestrator.ErrDegraded:
		return http.StatusServiceUnavailable, "Translator is not available"
	}
	return http.StatusInternalServerError, "Can't get status"
}

type resultHandler struct {
	data *ServiceData
}

func (h resultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, f := mux.Vars(r)["id"], mux.Vars(r)["file"]
	cmdapp.Log.Infof("Result request for %s/%s from %s", id, f, r.Host)

	res, err := h.data.ResultReader.ReadFile(r.Context(), id, f)
	if err != nil {
		switch errors.Cause(err) {
		case job.ErrValidation, result.ErrUnknownKind:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case blob.ErrNotFound:
			http.Error(w, "No result", http.StatusNotFound)
		default:
			http.Error(w, "Can't read result", http.StatusInternalServerError)
		}
		cmdapp.Log.Error(errors.Wrapf(err, "can't read result %s/%s", id, f))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+resultFileName(id, f))
	if _, err := w.Write([]byte(res)); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "can't write result"))
	}
}

func resultFileName(id, kind string) string {
	if kind == result.Plain {
		return id + "_TW_PlainText.txt"
	}
	return id + "_TW_Complete.txt"
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}

type websocketHandler struct {
	data *ServiceData
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func (h websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("ws request from %s", r.Host)
	if h.data.hub == nil {
		http.Error(w, "No subscriptions", http.StatusServiceUnavailable)
		return
	}
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "can't init ws connection"))
		return
	}
	go h.data.hub.handleConnection(c)
}
