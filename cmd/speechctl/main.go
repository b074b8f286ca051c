package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rjldg/speech-transcribe/internal/batch"
	"github.com/rjldg/speech-transcribe/internal/config"
	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/download"
	"github.com/rjldg/speech-transcribe/internal/fast"
	"github.com/rjldg/speech-transcribe/internal/service"
	"github.com/rjldg/speech-transcribe/internal/speech"
)

func main() {
	logger := log.New(os.Stdout, "[speechctl] ", log.LstdFlags|log.LUTC)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "batch":
		err = runBatch(ctx, os.Args[2:], logger)
	case "transcribe":
		err = runTranscribe(ctx, os.Args[2:], logger)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: speechctl <batch|transcribe> [flags]")
	fmt.Fprintln(os.Stderr, "  batch       submit a batch job, poll it and fetch result files")
	fmt.Fprintln(os.Stderr, "  transcribe  transcribe one audio file or url synchronously")
}

func newSpeechClient(cfg config.Config, logger *log.Logger) (*speech.Client, error) {
	executor := speech.NewExecutor(speech.ExecutorConfig{
		RPS:    cfg.RequestRPS,
		Burst:  cfg.RequestBurst,
		Logger: logger,
	})
	return speech.NewClient(speech.ClientConfig{
		Region:          cfg.Region,
		BearerToken:     cfg.EntraAccessToken,
		SubscriptionKey: cfg.SubscriptionKey,
		BatchAPIVersion: cfg.BatchAPIVersion,
		FastAPIVersion:  cfg.FastAPIVersion,
		Executor:        executor,
		Retry: speech.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseBackoff: time.Duration(cfg.RetryBackoffSeconds * float64(time.Second)),
		},
	})
}

func runBatch(ctx context.Context, args []string, logger *log.Logger) error {
	flags := flag.NewFlagSet("batch", flag.ExitOnError)
	displayName := flags.String("display-name", "", "override DISPLAY_NAME for this job")
	downloadResults := flags.Bool("download", false, "download artifacts of interest (overrides DOWNLOAD_RESULTS)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	if *displayName != "" {
		cfg.DisplayName = *displayName
	}
	if *downloadResults {
		cfg.DownloadResults = true
	}
	if err := cfg.ValidateBatch(); err != nil {
		return err
	}

	client, err := newSpeechClient(cfg, logger)
	if err != nil {
		return err
	}

	poller := batch.NewPoller(client, batch.PollerConfig{
		Interval: batch.IntervalPolicy{
			Initial:    time.Duration(cfg.PollIntervalSeconds * float64(time.Second)),
			Multiplier: cfg.BackoffMultiplier,
			Ceiling:    time.Duration(cfg.PollIntervalCeilingSeconds * float64(time.Second)),
		},
		Deadline: time.Duration(cfg.MaxPollMinutes) * time.Minute,
		Logger:   logger,
	})
	resolver := batch.NewResolver(client, batch.ResolverConfig{
		Interests: cfg.ArtifactKinds,
		Logger:    logger,
	})
	downloader := download.NewDownloader(cfg.DownloadDir, logger)

	pipeline := service.NewBatchService(service.BatchDependencies{
		Submitter:  client,
		Poller:     poller,
		Resolver:   resolver,
		Downloader: downloader,
		Logger:     logger,
	})

	outcome, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	printBatchOutcome(outcome)
	if outcome.State != domain.OutcomeSucceeded {
		os.Exit(2)
	}
	return nil
}

func printBatchOutcome(outcome domain.TranscriptionOutcome) {
	switch outcome.State {
	case domain.OutcomeSucceeded:
		fmt.Printf("job %s succeeded\n", outcome.JobID)
		if len(outcome.Artifacts) == 0 {
			fmt.Println("no files listed by the service; check the output container directly")
			return
		}
		for _, artifact := range outcome.Artifacts {
			fmt.Printf("- %s [%s] -> %s\n", artifact.Name, artifact.Kind, artifact.ContentURL)
		}
	case domain.OutcomeFailed:
		fmt.Printf("job %s failed: %s\n", outcome.JobID, outcome.Reason)
	case domain.OutcomeTimedOut:
		fmt.Printf(
			"job %s still running after %s; re-run later to resume polling\n",
			outcome.JobID, outcome.Elapsed,
		)
	}
}

func runTranscribe(ctx context.Context, args []string, logger *log.Logger) error {
	flags := flag.NewFlagSet("transcribe", flag.ExitOnError)
	audioFile := flags.String("file", "", "local audio file to upload inline (overrides AUDIO_FILE_PATH)")
	audioURL := flags.String("url", "", "public audio url (overrides AUDIO_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	if *audioFile != "" {
		cfg.AudioFilePath = *audioFile
		cfg.AudioURL = ""
	}
	if *audioURL != "" {
		cfg.AudioURL = *audioURL
		if *audioFile == "" {
			cfg.AudioFilePath = ""
		}
	}
	if err := cfg.ValidateFast(); err != nil {
		return err
	}

	client, err := newSpeechClient(cfg, logger)
	if err != nil {
		return err
	}

	fastClient := fast.NewClient(client, fast.Options{
		Locales:                cfg.Locales,
		DiarizationEnabled:     cfg.DiarizationEnabled,
		DiarizationMaxSpeakers: cfg.DiarizationMaxSpeakers,
		Channels:               cfg.Channels,
		PhraseList:             cfg.PhraseList,
		ProfanityFilterMode:    cfg.ProfanityFilterMode,
	}, logger)

	pipeline := service.NewFastService(fastClient, logger)
	outcome, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	printTranscript(outcome)
	if outcome.State != domain.OutcomeSucceeded {
		os.Exit(2)
	}
	return nil
}

func printTranscript(outcome domain.TranscriptionOutcome) {
	if outcome.State != domain.OutcomeSucceeded || outcome.Transcript == nil {
		fmt.Printf("transcription failed: %s\n", outcome.Reason)
		return
	}
	transcript := outcome.Transcript
	fmt.Printf("audio duration: %s\n", transcript.Duration)
	if transcript.CombinedText != "" {
		fmt.Println("--- combined transcription ---")
		fmt.Println(transcript.CombinedText)
	}
	limit := len(transcript.Phrases)
	if limit > 5 {
		limit = 5
	}
	if limit > 0 {
		fmt.Println("--- first phrases ---")
	}
	for _, phrase := range transcript.Phrases[:limit] {
		fmt.Printf(
			"[offset=%s dur=%s loc=%s conf=%.2f] %s\n",
			phrase.Offset, phrase.Duration, phrase.Locale, phrase.Confidence, phrase.Text,
		)
	}
}
