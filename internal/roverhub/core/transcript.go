package core

import "context"

// TranscriptSource tells where a resolved transcript came from.
type TranscriptSource string

const (
	SourceClient   TranscriptSource = "client"
	SourceService  TranscriptSource = "service"
	SourceFallback TranscriptSource = "fallback"
)

// TranscriptResolver produces a transcript for a distress report. It never
// fails: when nothing better is available it returns a fallback text.
type TranscriptResolver interface {
	Resolve(ctx context.Context, clientTranscript string, audio []byte) (string, TranscriptSource)
}

// AudioArchive stores raw distress audio for later review.
type AudioArchive interface {
	Archive(ctx context.Context, key string, data []byte) error
}
