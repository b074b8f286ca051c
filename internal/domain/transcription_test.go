package domain

import (
	"testing"
	"time"
)

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusSucceeded, JobStatusFailed, JobStatusCancelled}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
	transient := []JobStatus{JobStatusNotStarted, JobStatusRunning, JobStatus("SomethingNew")}
	for _, status := range transient {
		if status.Terminal() {
			t.Fatalf("%s must not be terminal", status)
		}
	}
}

func TestArtifactKindMatchesAny(t *testing.T) {
	kind := ArtifactKind("TranscriptionReport")
	if !kind.MatchesAny([]string{"transcription"}) {
		t.Fatalf("substring match must be case-insensitive")
	}
	if kind.MatchesAny([]string{"logs", ""}) {
		t.Fatalf("empty and unrelated terms must not match")
	}
}

func TestFailedOutcomeDefaultsReason(t *testing.T) {
	outcome := FailedOutcome("job-1", "  ")
	if outcome.Reason != "unspecified" {
		t.Fatalf("blank reason must default to unspecified, got %q", outcome.Reason)
	}
}

func TestSucceededWithArtifactsNeverNil(t *testing.T) {
	outcome := SucceededWithArtifacts("job-1", nil)
	if outcome.Artifacts == nil {
		t.Fatalf("artifact list must be non-nil even when empty")
	}
	if outcome.State != OutcomeSucceeded {
		t.Fatalf("unexpected state %q", outcome.State)
	}
}

func TestTimedOutOutcomeCarriesElapsed(t *testing.T) {
	outcome := TimedOutOutcome("job-2", 90*time.Minute)
	if outcome.State != OutcomeTimedOut || outcome.Elapsed != 90*time.Minute {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.JobID != "job-2" {
		t.Fatalf("timeout outcome must keep the job id for later resumption")
	}
}
