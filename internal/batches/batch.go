// Package batches tracks training batches: the exclusive claim of documents
// for one training round and the status of the job that consumes them.
package batches

import (
	"fmt"
	"slices"
	"time"
)

// Status is the lifecycle state of a training batch.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPreparing      Status = "preparing"
	StatusTraining       Status = "training"
	StatusDeploying      Status = "deploying"
	StatusDeployed       Status = "deployed"
	StatusFailed         Status = "failed"
	StatusTrainingFailed Status = "training_failed"
	StatusTimeout        Status = "timeout"
)

// Active lists the non-terminal statuses. A processor holds at most one
// batch in any of them.
var Active = []Status{
	StatusPending,
	StatusPreparing,
	StatusTraining,
	StatusDeploying,
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusFailed, StatusTrainingFailed, StatusTimeout},
	StatusPreparing: {StatusTraining, StatusFailed, StatusTrainingFailed, StatusTimeout},
	StatusTraining:  {StatusDeploying, StatusFailed, StatusTrainingFailed, StatusTimeout},
	StatusDeploying: {StatusDeployed, StatusFailed, StatusTimeout},
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// ParseStatus validates s as a batch status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPreparing, StatusTraining, StatusDeploying,
		StatusDeployed, StatusFailed, StatusTrainingFailed, StatusTimeout:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Kind distinguishes the first training round from later ones.
type Kind string

const (
	KindInitial     Kind = "initial"
	KindIncremental Kind = "incremental"
)

// ParseKind validates s as a batch kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindInitial, KindIncremental:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, s)
}

// Batch is one training round for a processor.
type Batch struct {
	BatchID          string     `json:"batch_id"`
	ProcessorID      string     `json:"processor_id"`
	Kind             Kind       `json:"kind"`
	DocumentIDs      []string   `json:"document_ids"`
	Status           Status     `json:"status"`
	JobHandle        *string    `json:"job_handle,omitempty"`
	DeployHandle     *string    `json:"deploy_handle,omitempty"`
	ProcessorVersion *string    `json:"processor_version,omitempty"`
	ManifestURI      *string    `json:"manifest_uri,omitempty"`
	AccuracyScore    *float64   `json:"accuracy_score,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	DeployedAt       *time.Time `json:"deployed_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Claim is a document exclusively reserved by a batch.
type Claim struct {
	DocumentID string `json:"document_id"`
	SourceURI  string `json:"source_uri"`
	Path       string `json:"path"`
	Label      string `json:"label"`
}

// BeginCommand opens a batch and claims up to Limit candidate documents.
type BeginCommand struct {
	ProcessorID string
	Kind        Kind
	Limit       int
}

// TransitionCommand moves a batch from From to To. Non-nil fields are recorded
// on the batch alongside the status change.
type TransitionCommand struct {
	BatchID          string
	From             Status
	To               Status
	JobHandle        *string
	DeployHandle     *string
	ProcessorVersion *string
	ManifestURI      *string
	Accuracy         *float64
	Error            *string
}
