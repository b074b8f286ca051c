package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rjldg/speech-transcribe/internal/config"
	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/fast"
)

// SynchronousTranscriber performs one fast transcription call.
// *fast.Client satisfies it.
type SynchronousTranscriber interface {
	TranscribeOnce(ctx context.Context, source fast.Source) (domain.TranscriptionOutcome, error)
}

// FastService picks the audio source from configuration and runs one
// synchronous transcription.
type FastService struct {
	transcriber SynchronousTranscriber
	logger      *log.Logger
}

func NewFastService(transcriber SynchronousTranscriber, logger *log.Logger) *FastService {
	return &FastService{transcriber: transcriber, logger: logger}
}

// NewSource builds the request source from configuration: an existing
// local file is uploaded inline, otherwise a remote URL is passed
// through. Validation has already ensured exactly one is set.
func NewSource(cfg config.Config) (fast.Source, error) {
	if cfg.AudioFilePath != "" {
		audio, err := os.ReadFile(cfg.AudioFilePath)
		if err != nil {
			return fast.Source{}, fmt.Errorf("read audio file: %w", err)
		}
		return fast.Source{
			Audio:    audio,
			Filename: filepath.Base(cfg.AudioFilePath),
		}, nil
	}
	return fast.Source{AudioURL: cfg.AudioURL}, nil
}

func (s *FastService) Run(ctx context.Context, cfg config.Config) (domain.TranscriptionOutcome, error) {
	source, err := NewSource(cfg)
	if err != nil {
		return domain.TranscriptionOutcome{}, err
	}
	if s.logger != nil {
		if source.AudioURL != "" {
			s.logger.Printf("transcribing from url %s", source.AudioURL)
		} else {
			s.logger.Printf("transcribing inline file %s (%d bytes)", source.Filename, len(source.Audio))
		}
	}
	return s.transcriber.TranscribeOnce(ctx, source)
}
