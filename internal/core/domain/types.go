// Package domain holds the types shared by the relay server and its client.
package domain

import (
	"strings"
	"time"
)

// ImageURLHeader carries the artifact reference ahead of the streamed body.
const ImageURLHeader = "X-Image-Url"

// Identity is the authenticated principal behind a request.
type Identity struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
}

// GenerationRequest is one user submission. It is consumed once by the relay
// and never persisted itself.
type GenerationRequest struct {
	Identity Identity `json:"-"`
	Topic    string   `json:"topic"`
}

// Validate trims the topic and rejects empty submissions.
func (r *GenerationRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return ErrInvalidRequest("topic is required").WithParam("topic")
	}
	return nil
}

// AuxiliaryMetadata is resolved before any text fragment is produced.
type AuxiliaryMetadata struct {
	ArtifactReference string `json:"imageUrl"`
}

// TextFragment is an opaque chunk of the answer. Fragments carry no boundary
// semantics and must be concatenated in arrival order.
type TextFragment string

// GenerationResult is assembled by the relay after the fragment sequence
// ended cleanly. It is written at most once and never mutated.
type GenerationResult struct {
	Identity          Identity
	Topic             string
	FullText          string
	ArtifactReference string
	CreatedAt         time.Time
}

// HistoryEntry is a persisted result as returned to its owner.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Explanation string    `json:"explanation"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EntryFromResult builds the history view of a result under the given id.
func EntryFromResult(id string, res *GenerationResult) *HistoryEntry {
	return &HistoryEntry{
		ID:          id,
		Topic:       res.Topic,
		Explanation: res.FullText,
		ImageURL:    res.ArtifactReference,
		CreatedAt:   res.CreatedAt,
	}
}

// Phase is the lifecycle position of a client stream.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingMetadata
	PhaseStreaming
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingMetadata:
		return "awaiting_metadata"
	case PhaseStreaming:
		return "streaming"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// ClientStreamState is a snapshot of one client stream session.
type ClientStreamState struct {
	BufferedText      string
	VisibleText       string
	ArtifactReference string
	Phase             Phase
	Err               error
}
