package speech

import (
	"strings"
	"time"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

// CreateJobRequest is the job-creation body for the batch collection
// endpoint. Both container URLs are SAS URLs prepared by the caller.
type CreateJobRequest struct {
	DisplayName         string         `json:"displayName"`
	Description         string         `json:"description,omitempty"`
	Locale              string         `json:"locale"`
	RecordingsURL       string         `json:"recordingsUrl"`
	ResultsContainerURL string         `json:"resultsContainerUrl"`
	Properties          *JobProperties `json:"properties,omitempty"`
}

type JobProperties struct {
	WordLevelTimestampsEnabled bool     `json:"wordLevelTimestampsEnabled"`
	DiagnosticMode             bool     `json:"diagnosticMode"`
	ProfanityFilterMode        string   `json:"profanityFilterMode,omitempty"`
	PunctuationMode            string   `json:"punctuationMode,omitempty"`
	SpeechRecognitionPhrases   []string `json:"speechRecognitionPhrases,omitempty"`
}

// jobResource is the service's job record. Older API versions report
// the status under "state", newer ones under "status".
type jobResource struct {
	ID         string `json:"id"`
	Self       string `json:"self"`
	Status     string `json:"status"`
	State      string `json:"state"`
	Properties struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"properties"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r jobResource) status() domain.JobStatus {
	if r.Status != "" {
		return domain.JobStatus(r.Status)
	}
	if r.State != "" {
		return domain.JobStatus(r.State)
	}
	return domain.JobStatusNotStarted
}

func (r jobResource) failureReason() string {
	for _, candidate := range []string{
		r.Properties.Error.Message,
		r.Error.Message,
		r.Properties.Error.Code,
		r.Error.Code,
	} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// fileListing is the files enumeration payload. The list arrives under
// "values" or, in older versions, "files".
type fileListing struct {
	Values []fileResource `json:"values"`
	Files  []fileResource `json:"files"`
}

func (l fileListing) entries() []fileResource {
	if l.Values != nil {
		return l.Values
	}
	return l.Files
}

type fileResource struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Links struct {
		ContentURL string `json:"contentUrl"`
	} `json:"links"`
	ContentURL string `json:"contentUrl"`
	URL        string `json:"url"`
}

// contentURL falls through the known locator shapes in order.
func (f fileResource) contentURL() string {
	if f.Links.ContentURL != "" {
		return f.Links.ContentURL
	}
	if f.ContentURL != "" {
		return f.ContentURL
	}
	return f.URL
}

// TranscribeDefinition is the "definition" JSON part of a fast
// transcription request. Empty fields are omitted so the service
// applies its own defaults.
type TranscribeDefinition struct {
	Locales             []string            `json:"locales,omitempty"`
	Diarization         *DiarizationOptions `json:"diarization,omitempty"`
	Channels            []int               `json:"channels,omitempty"`
	PhraseList          *PhraseListOptions  `json:"phraseList,omitempty"`
	ProfanityFilterMode string              `json:"profanityFilterMode,omitempty"`
	AudioURL            string              `json:"audioUrl,omitempty"`
}

type DiarizationOptions struct {
	Enabled     bool `json:"enabled"`
	MaxSpeakers int  `json:"maxSpeakers"`
}

type PhraseListOptions struct {
	Phrases []string `json:"phrases"`
}

type transcribeResult struct {
	DurationMilliseconds int64 `json:"durationMilliseconds"`
	CombinedPhrases      []struct {
		Text string `json:"text"`
	} `json:"combinedPhrases"`
	Phrases []struct {
		OffsetMilliseconds   int64   `json:"offsetMilliseconds"`
		DurationMilliseconds int64   `json:"durationMilliseconds"`
		Text                 string  `json:"text"`
		Locale               string  `json:"locale"`
		Confidence           float64 `json:"confidence"`
	} `json:"phrases"`
}

func (r transcribeResult) transcript() *domain.Transcript {
	combined := make([]string, 0, len(r.CombinedPhrases))
	for _, phrase := range r.CombinedPhrases {
		if strings.TrimSpace(phrase.Text) == "" {
			continue
		}
		combined = append(combined, strings.TrimSpace(phrase.Text))
	}

	phrases := make([]domain.Phrase, 0, len(r.Phrases))
	for _, phrase := range r.Phrases {
		phrases = append(phrases, domain.Phrase{
			Offset:     time.Duration(phrase.OffsetMilliseconds) * time.Millisecond,
			Duration:   time.Duration(phrase.DurationMilliseconds) * time.Millisecond,
			Text:       phrase.Text,
			Locale:     phrase.Locale,
			Confidence: phrase.Confidence,
		})
	}

	return &domain.Transcript{
		Duration:     time.Duration(r.DurationMilliseconds) * time.Millisecond,
		CombinedText: strings.Join(combined, " "),
		Phrases:      phrases,
	}
}
