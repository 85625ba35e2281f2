package artifact

import (
	"encoding/json"
	"errors"
	"testing"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("../../schemas")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func TestValidateRequest_Course(t *testing.T) {
	v := newValidator(t)

	good := json.RawMessage(`{"topic":"Go","chapters":3,"lessons_per_chapter":2,"include_images":true}`)
	if err := v.ValidateRequest("course", good); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		body string
	}{
		{"missing topic", `{"chapters":3,"lessons_per_chapter":2}`},
		{"zero chapters", `{"topic":"Go","chapters":0,"lessons_per_chapter":2}`},
		{"too many chapters", `{"topic":"Go","chapters":21,"lessons_per_chapter":2}`},
		{"unknown field", `{"topic":"Go","chapters":3,"lessons_per_chapter":2,"budget":99}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateRequest("course", json.RawMessage(tc.body))
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateRequest_UnknownKind(t *testing.T) {
	v := newValidator(t)
	err := v.ValidateRequest("podcast", json.RawMessage(`{}`))
	if err == nil || errors.Is(err, ErrValidation) {
		t.Errorf("unknown kind must be its own error, got %v", err)
	}
}

func TestValidateArtifact_Presentation(t *testing.T) {
	v := newValidator(t)

	good := json.RawMessage(`{
		"id": "6f0f2e6e-0000-0000-0000-000000000000",
		"title": "Roadmap",
		"slides": [
			{"title": "Q1", "bullets": ["ship"], "speaker_notes": "notes", "status": "ok"},
			{"title": "Q2", "bullets": ["n/a"], "status": "degraded"}
		]
	}`)
	if err := v.ValidateArtifact("presentation", good); err != nil {
		t.Errorf("valid artifact flagged: %v", err)
	}

	noBullets := json.RawMessage(`{
		"id": "x", "title": "Roadmap",
		"slides": [{"title": "Q1", "bullets": [], "status": "ok"}]
	}`)
	if err := v.ValidateArtifact("presentation", noBullets); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty bullets, got %v", err)
	}
}
