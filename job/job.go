// Package job defines the pipeline's unit of work and its state store (§3,
// §4.2): the Job record, its lifecycle, and where progress lives.
package job

import "time"

// Kind determines whether a COLLECT stage is inserted ahead of TRANSCRIBE.
type Kind string

const (
	KindRecorded Kind = "recorded"
	KindStream   Kind = "stream"
)

// Status is the job's coarse lifecycle state. It is monotone only in the
// direction Pending -> Processing -> {Completed, Failed}; the last two are
// terminal (§3 "Invariants").
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// SubtitleStyle mirrors the opaque style contract handed to the cutter
// collaborator (§6 "subtitle style contract").
type SubtitleStyle struct {
	FontName     string `json:"font_name,omitempty"`
	FontSize     int    `json:"font_size,omitempty"`
	Primary      string `json:"primary,omitempty"`
	Outline      string `json:"outline,omitempty"`
	OutlineWidth int    `json:"outline_width,omitempty"`
	Background   string `json:"background,omitempty"`
	Alignment    string `json:"alignment,omitempty"`
	MarginV      int    `json:"margin_v,omitempty"`
}

// DefaultSubtitleStyle is the fixed style contract from §6.
func DefaultSubtitleStyle() SubtitleStyle {
	return SubtitleStyle{
		FontName:     "Arial",
		FontSize:     18,
		Primary:      "white",
		Outline:      "black",
		OutlineWidth: 1,
		Background:   "semi-transparent black box",
		Alignment:    "bottom-center",
		MarginV:      40,
	}
}

// Job is the job record as defined in §3 "Data model".
type Job struct {
	JobID     string `json:"job_id"`
	SourceURL string `json:"source_url"`
	Kind      Kind   `json:"kind"`

	Status          Status `json:"status"`
	CurrentStep     string `json:"current_step"`
	ProgressStage   string `json:"progress_stage"`
	ProgressPercent int    `json:"progress_percent"`
	ProgressMessage string `json:"progress_message"`

	CreatedAt time.Time `json:"created_at"`

	ParentJobID   string `json:"parent_job_id,omitempty"`
	SegmentIndex  int    `json:"segment_index,omitempty"`
	TotalSegments int    `json:"total_segments,omitempty"`
	SegmentPath   string `json:"segment_path,omitempty"`

	SegmentsPublished int `json:"segments_published,omitempty"`
	SegmentsCompleted int `json:"segments_completed,omitempty"`

	OutputPath    string `json:"output_path,omitempty"`
	Title         string `json:"title,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	MaxHighlights    int           `json:"max_highlights"`
	IncludeSubtitles bool          `json:"include_subtitles"`
	SubtitleStyle    SubtitleStyle `json:"subtitle_style"`

	SegmentDuration int `json:"segment_duration,omitempty"`
	MaxDuration     int `json:"max_duration,omitempty"`
}

// IsTerminal reports whether the job has reached a state it can never leave.
func (j Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
