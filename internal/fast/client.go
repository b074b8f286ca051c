package fast

import (
	"context"
	"errors"
	"log"

	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/speech"
)

var (
	// ErrNoSource is returned when neither audio source is provided.
	ErrNoSource = errors.New("provide inline audio or an audio url")
	// ErrAmbiguousSource is returned when both sources are provided.
	ErrAmbiguousSource = errors.New("provide only one of inline audio and an audio url")
)

// Source selects exactly one audio input for a transcription request:
// inline bytes uploaded with the request, or a remote locator the
// service fetches itself.
type Source struct {
	Audio    []byte
	Filename string
	AudioURL string
}

func (s Source) validate() error {
	hasInline := len(s.Audio) > 0
	hasURL := s.AudioURL != ""
	switch {
	case !hasInline && !hasURL:
		return ErrNoSource
	case hasInline && hasURL:
		return ErrAmbiguousSource
	}
	return nil
}

// Options mirrors the tunable parts of the transcription definition.
// Zero values are omitted from the wire payload.
type Options struct {
	Locales                []string
	DiarizationEnabled     bool
	DiarizationMaxSpeakers int
	Channels               []int
	PhraseList             []string
	ProfanityFilterMode    string
}

func (o Options) definition() speech.TranscribeDefinition {
	definition := speech.TranscribeDefinition{
		Locales:             o.Locales,
		Channels:            o.Channels,
		ProfanityFilterMode: o.ProfanityFilterMode,
	}
	if o.DiarizationEnabled {
		maxSpeakers := o.DiarizationMaxSpeakers
		if maxSpeakers <= 0 {
			maxSpeakers = 2
		}
		definition.Diarization = &speech.DiarizationOptions{
			Enabled:     true,
			MaxSpeakers: maxSpeakers,
		}
	}
	if len(o.PhraseList) > 0 {
		definition.PhraseList = &speech.PhraseListOptions{Phrases: o.PhraseList}
	}
	return definition
}

// Transcriber is the single wire call the client needs.
// *speech.Client satisfies it.
type Transcriber interface {
	Transcribe(
		ctx context.Context,
		definition speech.TranscribeDefinition,
		audio []byte,
		filename string,
	) (*domain.Transcript, error)
}

// Client performs synchronous transcription: one request, no polling.
// The service returns the final transcript directly, subject only to
// the executor's throttling retries.
type Client struct {
	transcriber Transcriber
	options     Options
	logger      *log.Logger
}

func NewClient(transcriber Transcriber, options Options, logger *log.Logger) *Client {
	return &Client{
		transcriber: transcriber,
		options:     options,
		logger:      logger,
	}
}

// TranscribeOnce validates the source, issues one request and maps the
// response to a typed outcome. Precondition violations are reported
// before any network activity. Service-level failures (including an
// exhausted throttle budget) become a failed outcome; transport errors
// propagate as errors.
func (c *Client) TranscribeOnce(ctx context.Context, source Source) (domain.TranscriptionOutcome, error) {
	if err := source.validate(); err != nil {
		return domain.TranscriptionOutcome{}, err
	}

	definition := c.options.definition()
	var audio []byte
	filename := ""
	if source.AudioURL != "" {
		definition.AudioURL = source.AudioURL
	} else {
		audio = source.Audio
		filename = source.Filename
	}

	transcript, err := c.transcriber.Transcribe(ctx, definition, audio, filename)
	if err != nil {
		var apiErr *speech.APIError
		if errors.As(err, &apiErr) {
			if c.logger != nil && apiErr.Throttled() {
				c.logger.Printf("transcription still throttled after retries")
			}
			return domain.FailedOutcome("", apiErr.Error()), nil
		}
		return domain.TranscriptionOutcome{}, err
	}

	if c.logger != nil {
		c.logger.Printf(
			"transcription finished: %s of audio, %d phrases",
			transcript.Duration, len(transcript.Phrases),
		)
	}
	return domain.SucceededWithTranscript(transcript), nil
}
