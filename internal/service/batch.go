package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/rjldg/speech-transcribe/internal/batch"
	"github.com/rjldg/speech-transcribe/internal/config"
	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/speech"
)

// JobSubmitter submits a batch job. *speech.Client satisfies it.
type JobSubmitter interface {
	CreateJob(ctx context.Context, create speech.CreateJobRequest) (*domain.Job, error)
}

// JobPoller drives a job to a terminal state. *batch.Poller satisfies it.
type JobPoller interface {
	PollUntilTerminal(ctx context.Context, jobID string) (*domain.Job, error)
}

// OutcomeResolver maps a terminal job to its outcome. *batch.Resolver
// satisfies it.
type OutcomeResolver interface {
	Resolve(ctx context.Context, job *domain.Job) (domain.TranscriptionOutcome, error)
	Interests() []string
}

// ArtifactDownloader fetches one artifact to local storage.
// *download.Downloader satisfies it.
type ArtifactDownloader interface {
	Download(ctx context.Context, artifact domain.Artifact) (string, error)
}

// NewCreateJobRequest builds the job-creation body from configuration.
// An unset display name gets a unique generated one so repeated runs
// are distinguishable in the service's job list.
func NewCreateJobRequest(cfg config.Config) speech.CreateJobRequest {
	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = "batch-" + uuid.NewString()
	}
	create := speech.CreateJobRequest{
		DisplayName:         displayName,
		Description:         cfg.Description,
		Locale:              cfg.Locale,
		RecordingsURL:       cfg.InputContainerSASURL,
		ResultsContainerURL: cfg.OutputContainerSASURL,
	}
	if len(cfg.Phrases) > 0 {
		create.Properties = &speech.JobProperties{
			WordLevelTimestampsEnabled: true,
			ProfanityFilterMode:        cfg.ProfanityFilterMode,
			PunctuationMode:            "DictatedAndAutomatic",
			SpeechRecognitionPhrases:   cfg.Phrases,
		}
	}
	return create
}

type BatchDependencies struct {
	Submitter  JobSubmitter
	Poller     JobPoller
	Resolver   OutcomeResolver
	Downloader ArtifactDownloader
	Logger     *log.Logger
}

// BatchService runs the whole batch pipeline for one job: submit, poll
// until terminal, resolve the outcome, then optionally download the
// artifacts of interest.
type BatchService struct {
	submitter  JobSubmitter
	poller     JobPoller
	resolver   OutcomeResolver
	downloader ArtifactDownloader
	logger     *log.Logger
}

func NewBatchService(deps BatchDependencies) *BatchService {
	return &BatchService{
		submitter:  deps.Submitter,
		poller:     deps.Poller,
		resolver:   deps.Resolver,
		downloader: deps.Downloader,
		logger:     deps.Logger,
	}
}

// Run executes one batch session. A polling deadline produces a
// timed-out outcome rather than an error: the job is still running
// server-side and the id in the outcome can be polled again later.
func (s *BatchService) Run(ctx context.Context, cfg config.Config) (domain.TranscriptionOutcome, error) {
	job, err := s.submitter.CreateJob(ctx, NewCreateJobRequest(cfg))
	if err != nil {
		return domain.TranscriptionOutcome{}, fmt.Errorf("submit batch job: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("submitted job %s", job.ID)
	}

	job, err = s.poller.PollUntilTerminal(ctx, job.ID)
	if err != nil {
		var timeout *batch.PollTimeoutError
		if errors.As(err, &timeout) {
			if s.logger != nil {
				s.logger.Printf(
					"gave up waiting for job %s after %s, it may still complete",
					timeout.JobID, timeout.Elapsed,
				)
			}
			return domain.TimedOutOutcome(timeout.JobID, timeout.Elapsed), nil
		}
		return domain.TranscriptionOutcome{}, err
	}

	outcome, err := s.resolver.Resolve(ctx, job)
	if err != nil {
		return domain.TranscriptionOutcome{}, err
	}

	if outcome.State == domain.OutcomeSucceeded && cfg.DownloadResults && s.downloader != nil {
		wanted := batch.FilterByKind(outcome.Artifacts, s.resolver.Interests())
		for _, artifact := range wanted {
			localPath, err := s.downloader.Download(ctx, artifact)
			if err != nil {
				return outcome, fmt.Errorf("download artifact %q: %w", artifact.Name, err)
			}
			if s.logger != nil {
				s.logger.Printf("artifact %q saved to %s", artifact.Name, localPath)
			}
		}
	}

	return outcome, nil
}
