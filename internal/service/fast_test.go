package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rjldg/speech-transcribe/internal/config"
	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/fast"
)

type recordingTranscriber struct {
	source fast.Source
}

func (r *recordingTranscriber) TranscribeOnce(_ context.Context, source fast.Source) (domain.TranscriptionOutcome, error) {
	r.source = source
	return domain.SucceededWithTranscript(&domain.Transcript{CombinedText: "ok"}), nil
}

func TestNewSourceReadsLocalFileInline(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(audioPath, []byte("riff-data"), 0o600); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}

	source, err := NewSource(config.Config{AudioFilePath: audioPath})
	if err != nil {
		t.Fatalf("expected source, got err=%v", err)
	}
	if string(source.Audio) != "riff-data" || source.Filename != "clip.wav" {
		t.Fatalf("unexpected inline source %+v", source)
	}
	if source.AudioURL != "" {
		t.Fatalf("inline source must not carry a url")
	}
}

func TestNewSourceFailsOnMissingFile(t *testing.T) {
	if _, err := NewSource(config.Config{AudioFilePath: "/does/not/exist.wav"}); err == nil {
		t.Fatalf("expected read error for missing audio file")
	}
}

func TestFastServicePassesURLThrough(t *testing.T) {
	transcriber := &recordingTranscriber{}
	pipeline := NewFastService(transcriber, nil)

	outcome, err := pipeline.Run(context.Background(), config.Config{
		AudioURL: "https://audio.example/clip.wav",
	})
	if err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if outcome.State != domain.OutcomeSucceeded {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if transcriber.source.AudioURL != "https://audio.example/clip.wav" {
		t.Fatalf("url must pass through to the transcriber, got %+v", transcriber.source)
	}
}
