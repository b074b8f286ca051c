package domain

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusNotStarted JobStatus = "NotStarted"
	JobStatusRunning    JobStatus = "Running"
	JobStatusSucceeded  JobStatus = "Succeeded"
	JobStatusFailed     JobStatus = "Failed"
	JobStatusCancelled  JobStatus = "Cancelled"
)

// Terminal reports whether no further status transition can occur.
// Unknown statuses are treated as transient so polling keeps going.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Job is the canonical async unit tracked through one polling session.
// The ID is assigned by the remote service at submission and never changes.
type Job struct {
	ID            string
	Status        JobStatus
	FailureReason string
	SubmittedAt   time.Time
	Waited        time.Duration
}

type ArtifactKind string

// Artifact is a named output produced by a completed job, retrievable
// via its content URL. Read-only once constructed.
type Artifact struct {
	Name       string
	Kind       ArtifactKind
	ContentURL string
}

// MatchesAny reports whether the artifact kind matches any of the given
// interest terms by case-insensitive substring.
func (k ArtifactKind) MatchesAny(interests []string) bool {
	kind := strings.ToLower(string(k))
	for _, interest := range interests {
		term := strings.ToLower(strings.TrimSpace(interest))
		if term == "" {
			continue
		}
		if strings.Contains(kind, term) {
			return true
		}
	}
	return false
}

// Phrase is one time-aligned segment of a transcript.
type Phrase struct {
	Offset     time.Duration
	Duration   time.Duration
	Text       string
	Locale     string
	Confidence float64
}

// Transcript is the structured result of a synchronous transcription.
type Transcript struct {
	Duration     time.Duration
	CombinedText string
	Phrases      []Phrase
}

type OutcomeState string

const (
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeFailed    OutcomeState = "failed"
	OutcomeTimedOut  OutcomeState = "timed_out"
)

// TranscriptionOutcome is the resolved, immutable result of either
// pipeline. Exactly one is produced per job or request.
type TranscriptionOutcome struct {
	State      OutcomeState
	JobID      string
	Artifacts  []Artifact
	Transcript *Transcript
	Reason     string
	Elapsed    time.Duration
}

// SucceededWithArtifacts builds the batch success outcome. An empty,
// non-nil artifact list is a valid success.
func SucceededWithArtifacts(jobID string, artifacts []Artifact) TranscriptionOutcome {
	if artifacts == nil {
		artifacts = []Artifact{}
	}
	return TranscriptionOutcome{
		State:     OutcomeSucceeded,
		JobID:     jobID,
		Artifacts: artifacts,
	}
}

// SucceededWithTranscript builds the synchronous success outcome.
func SucceededWithTranscript(transcript *Transcript) TranscriptionOutcome {
	return TranscriptionOutcome{
		State:      OutcomeSucceeded,
		Transcript: transcript,
	}
}

// FailedOutcome reports a terminal unsuccessful job or request.
func FailedOutcome(jobID, reason string) TranscriptionOutcome {
	if strings.TrimSpace(reason) == "" {
		reason = "unspecified"
	}
	return TranscriptionOutcome{
		State:  OutcomeFailed,
		JobID:  jobID,
		Reason: reason,
	}
}

// TimedOutOutcome reports a polling deadline hit while the job was still
// non-terminal. The job may still complete server-side.
func TimedOutOutcome(jobID string, elapsed time.Duration) TranscriptionOutcome {
	return TranscriptionOutcome{
		State:   OutcomeTimedOut,
		JobID:   jobID,
		Elapsed: elapsed,
	}
}
