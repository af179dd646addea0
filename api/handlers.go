package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/errors"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/stage/collector"
	"github.com/livepeer/clipper-core/stage/transcriber"
)

// Publisher is the narrow slice of broker.Publisher the front-end needs to
// fire the first message of a new job's pipeline run.
type Publisher interface {
	Publish(ctx context.Context, queue string, env broker.Envelope) error
}

// Deps are the collaborators the REST front-end needs (§4.12).
type Deps struct {
	JobStore      job.Store
	FrontendStore *frontend.Store
	Publisher     Publisher
	Config        config.Cli
}

// createRequest is the POST /jobs body (§3 "Job fields").
type createRequest struct {
	SourceURL        string            `json:"source_url"`
	Kind             string            `json:"kind"`
	MaxHighlights    int               `json:"max_highlights"`
	IncludeSubtitles bool              `json:"include_subtitles"`
	SubtitleStyle    *job.SubtitleStyle `json:"subtitle_style,omitempty"`
	SegmentDuration  int               `json:"segment_duration,omitempty"`
	MaxDuration      int               `json:"max_duration,omitempty"`
}

type createResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// jobResponse mirrors the §3 job fields a caller is allowed to observe.
type jobResponse struct {
	JobID           string `json:"job_id"`
	SourceURL       string `json:"source_url"`
	Kind            string `json:"kind"`
	Status          string `json:"status"`
	CurrentStep     string `json:"current_step"`
	ProgressStage   string `json:"progress_stage"`
	ProgressPercent int    `json:"progress_percent"`
	ProgressMessage string `json:"progress_message"`
	OutputPath      string `json:"output_path,omitempty"`
	Title           string `json:"title,omitempty"`
	ThumbnailPath   string `json:"thumbnail_path,omitempty"`
}

// Handlers wires Deps into httprouter.Handle funcs.
type Handlers struct {
	Deps Deps
}

// CreateJob handles POST /jobs: assigns a job id, writes the relational and
// KV records, and publishes the first pipeline message (§4.11's CLI
// front-end does the same three steps; this is its HTTP sibling).
func (h Handlers) CreateJob(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTPBadRequest(w, "invalid JSON body", err)
		return
	}
	if req.SourceURL == "" {
		errors.WriteHTTPBadRequest(w, "source_url is required", nil)
		return
	}

	kind := job.Kind(req.Kind)
	if kind == "" {
		kind = job.KindRecorded
	}
	if kind != job.KindRecorded && kind != job.KindStream {
		errors.WriteHTTPBadRequest(w, "kind must be \"recorded\" or \"stream\"", nil)
		return
	}

	maxHighlights := req.MaxHighlights
	if maxHighlights == 0 {
		maxHighlights = config.DefaultMaxHighlights
	}
	if maxHighlights < config.MinMaxHighlights || maxHighlights > config.MaxMaxHighlights {
		errors.WriteHTTPBadRequest(w, "max_highlights out of bounds", nil)
		return
	}

	style := job.DefaultSubtitleStyle()
	if req.SubtitleStyle != nil {
		style = *req.SubtitleStyle
	}

	jobID := uuid.NewString()
	ctx := r.Context()

	if h.Deps.FrontendStore != nil {
		if err := h.Deps.FrontendStore.Create(ctx, frontend.Row{
			JobID:            jobID,
			SourceURL:        req.SourceURL,
			Kind:             kind,
			MaxHighlights:    maxHighlights,
			IncludeSubtitles: req.IncludeSubtitles,
		}); err != nil {
			errors.WriteHTTPInternalServerError(w, "failed to create job", err)
			return
		}
	}

	if err := h.Deps.JobStore.Initialize(ctx, job.Job{
		JobID:            jobID,
		SourceURL:        req.SourceURL,
		Kind:             kind,
		MaxHighlights:    maxHighlights,
		IncludeSubtitles: req.IncludeSubtitles,
		SubtitleStyle:    style,
		SegmentDuration:  req.SegmentDuration,
		MaxDuration:      req.MaxDuration,
	}); err != nil {
		errors.WriteHTTPInternalServerError(w, "failed to initialize job", err)
		return
	}

	var env broker.Envelope
	var queue string
	var err error
	if kind == job.KindStream {
		queue = broker.QueueCollect
		env, err = broker.NewEnvelope(jobID, "collect", collector.Payload{
			StreamURL:       req.SourceURL,
			SegmentDuration: req.SegmentDuration,
			MaxDuration:     req.MaxDuration,
		})
	} else {
		queue = broker.QueueTranscribe
		env, err = broker.NewEnvelope(jobID, "transcribe", transcriber.Payload{URL: req.SourceURL})
	}
	if err != nil {
		errors.WriteHTTPInternalServerError(w, "failed to build job envelope", err)
		return
	}
	if err := h.Deps.Publisher.Publish(ctx, queue, env); err != nil {
		errors.WriteHTTPInternalServerError(w, "failed to publish job", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(createResponse{JobID: jobID, Status: string(job.StatusPending)})
}

// GetJob handles GET /jobs/:id: the relational row is authoritative (§3 "the
// authoritative terminal status also lives in the relational row of the
// front-end").
func (h Handlers) GetJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	jobID := ps.ByName("id")
	row, err := h.Deps.FrontendStore.Get(r.Context(), jobID)
	if err == frontend.ErrNotFound {
		errors.WriteHTTPNotFound(w, "job not found", nil)
		return
	}
	if err != nil {
		errors.WriteHTTPInternalServerError(w, "failed to fetch job", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jobResponse{
		JobID:           row.JobID,
		SourceURL:       row.SourceURL,
		Kind:            string(row.Kind),
		Status:          string(row.Status),
		CurrentStep:     row.CurrentStep,
		ProgressStage:   row.ProgressStage,
		ProgressPercent: row.ProgressPercent,
		ProgressMessage: row.ProgressMessage,
		OutputPath:      row.OutputPath.String,
		Title:           row.Title.String,
		ThumbnailPath:   row.ThumbnailPath.String,
	})
}
