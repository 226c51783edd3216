// Package audio plays notification tones through the host sound device,
// standing in for the pager's piezo buzzer.
package audio

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 1
)

// Shared audio context, initialised once on first use.
var (
	ctxOnce  sync.Once
	audioCtx *oto.Context
	ctxReady bool
)

func initContext(logger *slog.Logger) {
	ctxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			logger.Error("failed to initialise audio context, tones disabled", "error", err)
			return
		}
		<-readyChan

		audioCtx = ctx
		ctxReady = true
	})
}

// Buzzer synthesises square-wave tones. EmitTone is fire-and-forget: playback
// runs on its own goroutine and failures are logged, never surfaced.
type Buzzer struct {
	logger *slog.Logger
}

// NewBuzzer constructs a Buzzer. The audio context is opened lazily on the
// first tone so headless hosts only pay for it when a tone is requested.
func NewBuzzer(logger *slog.Logger) *Buzzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Buzzer{logger: logger}
}

// EmitTone plays frequencyHz for duration and returns immediately.
func (b *Buzzer) EmitTone(frequencyHz int, duration time.Duration) {
	if frequencyHz <= 0 || duration <= 0 {
		return
	}

	initContext(b.logger)
	if !ctxReady {
		return
	}

	pcm := synthesizeSquare(frequencyHz, duration)
	go func() {
		player := audioCtx.NewPlayer(bytes.NewReader(pcm))
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		if err := player.Close(); err != nil {
			b.logger.Warn("failed to close tone player", "error", err)
		}
	}()
}

// synthesizeSquare renders a square wave as signed 16-bit little-endian PCM,
// with a short linear fade-out to avoid a click at the end.
func synthesizeSquare(frequencyHz int, duration time.Duration) []byte {
	samples := int(float64(sampleRate) * duration.Seconds())
	if samples <= 0 {
		return nil
	}

	period := sampleRate / frequencyHz
	if period < 2 {
		period = 2
	}
	fadeSamples := samples / 10

	buf := make([]byte, samples*2)
	const amplitude = 12000
	for i := 0; i < samples; i++ {
		v := int16(amplitude)
		if (i/(period/2))%2 == 1 {
			v = -amplitude
		}
		if remaining := samples - i; remaining < fadeSamples && fadeSamples > 0 {
			v = int16(int(v) * remaining / fadeSamples)
		}
		buf[2*i] = byte(uint16(v) & 0xff)
		buf[2*i+1] = byte(uint16(v) >> 8)
	}
	return buf
}
