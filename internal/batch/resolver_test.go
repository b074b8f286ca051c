package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

type fakeLister struct {
	artifacts []domain.Artifact
	err       error
	calls     int
}

func (l *fakeLister) ListFiles(_ context.Context, _ string) ([]domain.Artifact, error) {
	l.calls++
	return l.artifacts, l.err
}

func TestResolveSucceededWithEmptyListing(t *testing.T) {
	lister := &fakeLister{artifacts: []domain.Artifact{}}
	resolver := NewResolver(lister, ResolverConfig{})

	outcome, err := resolver.Resolve(context.Background(), &domain.Job{
		ID:     "job-1",
		Status: domain.JobStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("empty listing is a valid success, got err=%v", err)
	}
	if outcome.State != domain.OutcomeSucceeded {
		t.Fatalf("expected succeeded outcome, got %q", outcome.State)
	}
	if outcome.Artifacts == nil || len(outcome.Artifacts) != 0 {
		t.Fatalf("expected empty non-nil artifact list, got %v", outcome.Artifacts)
	}
}

func TestResolveEnumerationFailureIsDistinctFromEmpty(t *testing.T) {
	lister := &fakeLister{err: errors.New("listing broke")}
	resolver := NewResolver(lister, ResolverConfig{})

	_, err := resolver.Resolve(context.Background(), &domain.Job{
		ID:     "job-2",
		Status: domain.JobStatusSucceeded,
	})
	var enumErr *ArtifactEnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected *ArtifactEnumerationError, got %v", err)
	}
	if enumErr.JobID != "job-2" {
		t.Fatalf("expected job id in error, got %q", enumErr.JobID)
	}
}

func TestResolveFailedJobCarriesReason(t *testing.T) {
	resolver := NewResolver(&fakeLister{}, ResolverConfig{})

	outcome, err := resolver.Resolve(context.Background(), &domain.Job{
		ID:            "job-3",
		Status:        domain.JobStatusFailed,
		FailureReason: "quota exceeded",
	})
	if err != nil {
		t.Fatalf("expected outcome, got err=%v", err)
	}
	if outcome.State != domain.OutcomeFailed || outcome.Reason != "quota exceeded" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestResolveCancelledJobDefaultsReason(t *testing.T) {
	lister := &fakeLister{}
	resolver := NewResolver(lister, ResolverConfig{})

	outcome, err := resolver.Resolve(context.Background(), &domain.Job{
		ID:     "job-4",
		Status: domain.JobStatusCancelled,
	})
	if err != nil {
		t.Fatalf("expected outcome, got err=%v", err)
	}
	if outcome.Reason != "unspecified" {
		t.Fatalf("expected default reason, got %q", outcome.Reason)
	}
	if lister.calls != 0 {
		t.Fatalf("no listing call expected for unsuccessful jobs, got %d", lister.calls)
	}
}

func TestResolveRejectsNonTerminalJob(t *testing.T) {
	resolver := NewResolver(&fakeLister{}, ResolverConfig{})

	_, err := resolver.Resolve(context.Background(), &domain.Job{
		ID:     "job-5",
		Status: domain.JobStatusRunning,
	})
	if !errors.Is(err, ErrJobNotTerminal) {
		t.Fatalf("expected ErrJobNotTerminal, got %v", err)
	}
}

func TestFilterByKindMatchesSubstringsCaseInsensitively(t *testing.T) {
	artifacts := []domain.Artifact{
		{Name: "a.json", Kind: "Transcription"},
		{Name: "b.json", Kind: "TranscriptionReport"},
		{Name: "c.log", Kind: "Logs"},
		{Name: "d.json", Kind: "BatchResult"},
	}

	matched := FilterByKind(artifacts, []string{"transcription", "result"})
	if len(matched) != 3 {
		t.Fatalf("expected 3 matches, got %d: %v", len(matched), matched)
	}
	for _, artifact := range matched {
		if artifact.Name == "c.log" {
			t.Fatalf("log artifact must not match the interest set")
		}
	}

	if got := FilterByKind(artifacts, nil); len(got) != 0 {
		t.Fatalf("no interests means no matches, got %v", got)
	}
}
