package upload

import (
	"bytes"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"bitbucket.org/airenas/subtitler/internal/pkg/messages"
	"bitbucket.org/airenas/subtitler/internal/pkg/metrics"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	prmFile        = "file_chunk"
	prmChunkIndex  = "chunk_index"
	prmTotalChunks = "total_chunks"
	prmFileID      = "file_id"
	prmMode        = "mode"
)

const (
	modeSpeech = "speech"
	modeSong   = "song"
)

type serviceMetric struct {
	uploadResponseDur prometheus.ObserverVec
	uploadRequestSize prometheus.ObserverVec
}

// ServiceData keeps data required for service work
type ServiceData struct {
	FileSaver     FileSaver
	MessageSender MessageSender

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

// ChunkResult - post method response in JSON
type ChunkResult struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

type metadata struct {
	Mode string `json:"mode"`
}

func newMetrics() (serviceMetric, error) {
	res := serviceMetric{}
	rd := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subtitler",
		Name:      "upload_response_duration_seconds",
		Help:      "Chunk upload response duration",
	}, []string{"code", "method"})
	rs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subtitler",
		Name:      "upload_request_size_bytes",
		Help:      "Chunk upload request size",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	}, []string{"code", "method"})
	if err := metrics.Register(rd, rs); err != nil {
		return res, err
	}
	res.uploadResponseDur, res.uploadRequestSize = rd, rs
	return res, nil
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       180 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	var uh http.Handler = uploadHandler{data: data}
	if data.metrics.uploadRequestSize != nil {
		uh = promhttp.InstrumentHandlerRequestSize(data.metrics.uploadRequestSize, uh)
	}
	if data.metrics.uploadResponseDur != nil {
		uh = promhttp.InstrumentHandlerDuration(data.metrics.uploadResponseDur, uh)
	}
	router.Methods("POST").Path("/upload_chunk").Handler(uh)
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type uploadHandler struct {
	data *ServiceData
}

type chunkParams struct {
	id    string
	index int
	total int
	mode  string
}

func (h uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Saving chunk from %s", r.Host)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		http.Error(w, "Can't parse MultipartForm", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't parse MultipartForm"))
		return
	}
	defer cleanFiles(r.MultipartForm)

	prm, err := takeParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}

	file, _, err := r.FormFile(prmFile)
	if err != nil {
		http.Error(w, "No file", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrapf(err, "no form param %s", prmFile))
		return
	}
	defer file.Close()

	if prm.index == 0 {
		err = saveMetadata(h.data.FileSaver, prm)
		if err != nil {
			http.Error(w, "Can not save metadata", http.StatusInternalServerError)
			cmdapp.Log.Error(err)
			return
		}
	}

	key := blob.RawAudioKey(prm.id, prm.index)
	err = h.data.FileSaver.Save(key, file)
	if err != nil {
		http.Error(w, "Can not save file", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	if h.data.MessageSender != nil {
		err = h.data.MessageSender.Send(messages.NewQueueMessage(key), messages.Transcribe)
		if err != nil {
			http.Error(w, "Can not send transcribe message", http.StatusInternalServerError)
			cmdapp.Log.Error(err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err = encoder.Encode(&ChunkResult{Status: "uploaded", Index: prm.index})
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}

func takeParams(r *http.Request) (*chunkParams, error) {
	res := &chunkParams{id: r.FormValue(prmFileID)}
	if err := job.ValidateID(res.id); err != nil {
		return nil, err
	}
	var err error
	if res.index, err = job.ParseInt(r.FormValue(prmChunkIndex), prmChunkIndex); err != nil {
		return nil, err
	}
	if res.total, err = job.ParseInt(r.FormValue(prmTotalChunks), prmTotalChunks); err != nil {
		return nil, err
	}
	if err := job.ValidateChunkIndex(res.index, res.total); err != nil {
		return nil, err
	}
	res.mode = r.FormValue(prmMode)
	if res.mode == "" {
		res.mode = modeSpeech
	}
	if res.mode != modeSpeech && res.mode != modeSong {
		return nil, errors.Wrapf(job.ErrValidation, "wrong %s '%s'", prmMode, res.mode)
	}
	return res, nil
}

func saveMetadata(fs FileSaver, prm *chunkParams) error {
	b, err := json.Marshal(metadata{Mode: prm.mode})
	if err != nil {
		return errors.Wrap(err, "can't marshal metadata")
	}
	return errors.Wrapf(fs.Save(blob.MetadataKey(prm.id), bytes.NewReader(b)), "can't save metadata for %s", prm.id)
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		_ = f.RemoveAll()
	}
}
