package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Unit generation status. A degraded unit was replaced by a placeholder
// after retries were exhausted or the model output could not be parsed.
const (
	UnitStatusOK       = "ok"
	UnitStatusDegraded = "degraded"
)

// Artifact kinds.
const (
	ArtifactCourse       = "course"
	ArtifactPresentation = "presentation"
)

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type Lesson struct {
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Quiz     []QuizQuestion `json:"quiz"`
	Status   string         `json:"status"`
	ImageURL string         `json:"image_url,omitempty"`
}

type Chapter struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Chapters    []Chapter `json:"chapters"`
}

type Slide struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speaker_notes"`
	Status       string   `json:"status"`
	ImageURL     string   `json:"image_url,omitempty"`
}

type Presentation struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Slides []Slide   `json:"slides"`
}

// Artifact is a persisted generation result (course or presentation) stored
// as JSONB alongside its billing metadata.
type Artifact struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	CostCharged   int             `json:"cost_charged"`
	DegradedUnits int             `json:"degraded_units"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Generation job statuses for the async path.
const (
	GenerationQueued    = "queued"
	GenerationRunning   = "running"
	GenerationCompleted = "completed"
	GenerationFailed    = "failed"
)

type GenerationJob struct {
	ID         uuid.UUID       `json:"id"`
	AccountID  uuid.UUID       `json:"account_id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Request    json.RawMessage `json:"request"`
	ArtifactID *uuid.UUID      `json:"artifact_id,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
