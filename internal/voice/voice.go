package voice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"courtsim/internal/trialevents"
	"courtsim/models"

	"go.uber.org/zap"
)

// Speaker renders an utterance as audio
type Speaker interface {
	Speak(ctx context.Context, text string, role models.Role, lang string) error
}

// Clip is captured audio handed to a Transcriber
type Clip struct {
	MIMEType string
	Data     []byte
}

// Transcriber turns a clip into text. ok is false when nothing usable was heard.
type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (text string, ok bool)
}

// LogSpeaker writes utterances to the log instead of an audio device
type LogSpeaker struct {
	Log *zap.SugaredLogger
}

func (s LogSpeaker) Speak(_ context.Context, text string, role models.Role, lang string) error {
	s.Log.Infow("speak", "role", role, "lang", lang, "text", text)
	return nil
}

// AudioTranscriber is implemented by services.GeminiGenerator
type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, mimeType string, data []byte) (string, error)
}

// ModelTranscriber adapts a model-backed audio transcriber
type ModelTranscriber struct {
	Model AudioTranscriber
	Log   *zap.SugaredLogger
}

func (t ModelTranscriber) Transcribe(ctx context.Context, clip Clip) (string, bool) {
	if len(clip.Data) == 0 {
		return "", false
	}
	mime := clip.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}
	text, err := t.Model.TranscribeAudio(ctx, mime, clip.Data)
	if err != nil {
		if t.Log != nil {
			t.Log.Warnw("transcription failed", "error", err)
		}
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

type utterance struct {
	text string
	role models.Role
	lang string
}

// Async plays utterances one at a time on a background worker. Speak never
// blocks; when the queue is full the utterance is dropped.
type Async struct {
	speaker Speaker
	log     *zap.SugaredLogger
	queue   chan utterance
	done    chan struct{}
	dropped atomic.Int64
	failed  atomic.Int64

	mu     sync.RWMutex // guards closed against sends on queue
	closed bool
}

func NewAsync(speaker Speaker, buffer int, log *zap.SugaredLogger) *Async {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &Async{
		speaker: speaker,
		log:     log,
		queue:   make(chan utterance, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for u := range a.queue {
		if err := a.speaker.Speak(context.Background(), u.text, u.role, u.lang); err != nil {
			a.failed.Add(1)
			a.log.Warnw("speech failed", "role", u.role, "error", err)
		}
	}
}

// ErrClosed is returned by Speak after Close
var ErrClosed = errors.New("voice output closed")

func (a *Async) Speak(_ context.Context, text string, role models.Role, lang string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- utterance{text: text, role: role, lang: lang}:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Close stops accepting utterances and waits for queued ones to play
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

// Dropped is the number of utterances discarded because the queue was full
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Failed is the number of utterances the speaker could not play
func (a *Async) Failed() int64 { return a.failed.Load() }

// Narrate speaks every transcript event until events closes or ctx ends
func Narrate(ctx context.Context, events <-chan *trialevents.Event, speaker Speaker, lang string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != trialevents.TypeTranscript {
				continue
			}
			var entry models.TranscriptEntry
			if err := json.Unmarshal(ev.Payload, &entry); err != nil {
				continue
			}
			_ = speaker.Speak(ctx, entry.Content, entry.Speaker, lang)
		}
	}
}
