package batch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

// ErrJobNotTerminal is returned when Resolve is handed a job that is
// still in flight.
var ErrJobNotTerminal = errors.New("cannot resolve outcome of a non-terminal job")

// ArtifactLister enumerates the files a finished job produced.
// *speech.Client satisfies it.
type ArtifactLister interface {
	ListFiles(ctx context.Context, jobID string) ([]domain.Artifact, error)
}

// ArtifactEnumerationError reports that the listing call itself failed
// after a successful job. This is distinct from a job that succeeded
// with zero artifacts: results may exist but be unreported.
type ArtifactEnumerationError struct {
	JobID string
	Err   error
}

func (e *ArtifactEnumerationError) Error() string {
	return fmt.Sprintf("enumerate artifacts of job %s: %v", e.JobID, e.Err)
}

func (e *ArtifactEnumerationError) Unwrap() error {
	return e.Err
}

// FilterByKind returns the artifacts whose kind matches any interest
// term by case-insensitive substring. Pure function; order preserved.
func FilterByKind(artifacts []domain.Artifact, interests []string) []domain.Artifact {
	matched := make([]domain.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		if artifact.Kind.MatchesAny(interests) {
			matched = append(matched, artifact)
		}
	}
	return matched
}

type ResolverConfig struct {
	// Interests selects which artifact kinds are worth retrieving.
	Interests []string
	Logger    *log.Logger
}

// Resolver turns a terminal job into a typed TranscriptionOutcome.
type Resolver struct {
	lister    ArtifactLister
	interests []string
	logger    *log.Logger
}

func NewResolver(lister ArtifactLister, config ResolverConfig) *Resolver {
	if len(config.Interests) == 0 {
		config.Interests = []string{"transcription", "result"}
	}
	return &Resolver{
		lister:    lister,
		interests: config.Interests,
		logger:    config.Logger,
	}
}

// Interests returns the configured artifact interest set.
func (r *Resolver) Interests() []string {
	return r.interests
}

// Resolve maps a terminal job to its outcome. Succeeded jobs get their
// artifacts enumerated; an empty listing is a valid success, while a
// failed listing call surfaces as *ArtifactEnumerationError. Failed and
// cancelled jobs map to a failed outcome with a best-effort reason.
func (r *Resolver) Resolve(ctx context.Context, job *domain.Job) (domain.TranscriptionOutcome, error) {
	switch job.Status {
	case domain.JobStatusSucceeded:
		artifacts, err := r.lister.ListFiles(ctx, job.ID)
		if err != nil {
			return domain.TranscriptionOutcome{}, &ArtifactEnumerationError{JobID: job.ID, Err: err}
		}
		if r.logger != nil {
			wanted := FilterByKind(artifacts, r.interests)
			r.logger.Printf(
				"job %s succeeded with %d artifacts (%d of interest)",
				job.ID, len(artifacts), len(wanted),
			)
		}
		return domain.SucceededWithArtifacts(job.ID, artifacts), nil
	case domain.JobStatusFailed, domain.JobStatusCancelled:
		if r.logger != nil {
			r.logger.Printf("job %s finished %s: %s", job.ID, job.Status, job.FailureReason)
		}
		return domain.FailedOutcome(job.ID, job.FailureReason), nil
	default:
		return domain.TranscriptionOutcome{}, ErrJobNotTerminal
	}
}
