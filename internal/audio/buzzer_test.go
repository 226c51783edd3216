package audio

import (
	"testing"
	"time"
)

func TestSynthesizeSquareLengthAndRange(t *testing.T) {
	t.Parallel()

	pcm := synthesizeSquare(880, 130*time.Millisecond)
	wantSamples := int(float64(sampleRate) * 0.13)
	if len(pcm) != wantSamples*2 {
		t.Fatalf("pcm length = %d bytes, want %d", len(pcm), wantSamples*2)
	}

	// The wave must actually alternate sign.
	sawPositive := false
	sawNegative := false
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		if v > 0 {
			sawPositive = true
		}
		if v < 0 {
			sawNegative = true
		}
	}
	if !sawPositive || !sawNegative {
		t.Fatal("square wave did not alternate")
	}
}

func TestSynthesizeSquareDegenerateInputs(t *testing.T) {
	t.Parallel()

	if pcm := synthesizeSquare(880, 0); pcm != nil {
		t.Fatalf("zero duration produced %d bytes", len(pcm))
	}
}

func TestEmitToneIgnoresRests(t *testing.T) {
	t.Parallel()

	// Frequency 0 is a rest in a tone pattern; it must not touch the audio
	// context at all.
	b := NewBuzzer(nil)
	b.EmitTone(0, 130*time.Millisecond)
	b.EmitTone(-5, 130*time.Millisecond)
	b.EmitTone(440, 0)
}
