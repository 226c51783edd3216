// Package notify drives the LED and buzzer feedback for new pages. Both
// state machines are polled from the main loop and never block; every wait
// is an elapsed-time comparison against the monotonic clock passed in.
package notify

import "time"

// Indicator is the LED output.
type Indicator interface {
	Set(on bool)
}

// ToneEmitter plays a single tone. The call is fire-and-forget: it must
// return immediately and never waits for tone completion.
type ToneEmitter interface {
	EmitTone(frequencyHz int, duration time.Duration)
}

// IndicatorFunc adapts a function to the Indicator interface.
type IndicatorFunc func(on bool)

// Set implements Indicator.
func (f IndicatorFunc) Set(on bool) { f(on) }

// NopEmitter discards tones. Used for headless operation.
type NopEmitter struct{}

// EmitTone implements ToneEmitter.
func (NopEmitter) EmitTone(int, time.Duration) {}

const (
	// StepInterval is the time between notification steps.
	StepInterval = 100 * time.Millisecond
	// LEDSteps is the total number of steps; the LED toggles each step, so
	// 40 steps blink for 4 seconds.
	LEDSteps = 40
	// ToneDuration is the fire-and-forget duration hint per tone.
	ToneDuration = 130 * time.Millisecond
)

// DefaultToneProfiles are the per-RIC ring patterns, one frequency per
// notification step. Index 0 is a plain two-tone ring, 1 an ascending scale,
// 2 a single-note repeat.
var DefaultToneProfiles = [][]int{
	{880, 0, 880, 0, 880, 0, 880, 0},
	{523, 587, 659, 698, 784, 880, 988, 1047},
	{1000, 1000, 0, 0, 1000, 1000, 0, 0},
}

// Notifier runs the bounded LED/tone pattern for a freshly arrived page.
// Exactly one notification runs at a time; arming while active restarts the
// pattern with the new tone profile.
type Notifier struct {
	indicator Indicator
	tones     ToneEmitter
	profiles  [][]int

	active    bool
	step      int
	profile   int
	lastStep  time.Time
	interval  time.Duration
	stepCount int
}

// NotifierOption customises Notifier construction.
type NotifierOption func(*Notifier)

// WithStepCount overrides the total number of pattern steps.
func WithStepCount(steps int) NotifierOption {
	return func(n *Notifier) {
		if steps > 0 {
			n.stepCount = steps
		}
	}
}

// WithStepInterval overrides the interval between steps.
func WithStepInterval(interval time.Duration) NotifierOption {
	return func(n *Notifier) {
		if interval > 0 {
			n.interval = interval
		}
	}
}

// NewNotifier constructs a Notifier over the given outputs. Nil profiles
// fall back to DefaultToneProfiles.
func NewNotifier(indicator Indicator, tones ToneEmitter, profiles [][]int, opts ...NotifierOption) *Notifier {
	if profiles == nil {
		profiles = DefaultToneProfiles
	}
	if tones == nil {
		tones = NopEmitter{}
	}
	n := &Notifier{
		indicator: indicator,
		tones:     tones,
		profiles:  profiles,
		interval:  StepInterval,
		stepCount: LEDSteps,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Arm starts (or restarts) the notification pattern with the given tone
// profile. Last arrival wins; there is no queueing.
func (n *Notifier) Arm(profile int, now time.Time) {
	if profile < 0 || profile >= len(n.profiles) {
		profile = 0
	}
	n.active = true
	n.step = 0
	n.profile = profile
	n.lastStep = now
}

// Active reports whether a notification pattern is running.
func (n *Notifier) Active() bool {
	return n.active
}

// Tick advances the pattern by at most one step per call once the step
// interval has elapsed. Even steps turn the LED on, odd steps off; steps
// within the tone pattern additionally emit the corresponding note. The
// machine self-terminates after the fixed step count and forces the LED off.
func (n *Notifier) Tick(now time.Time) {
	if !n.active {
		return
	}
	if now.Sub(n.lastStep) < n.interval {
		return
	}
	n.lastStep = now

	n.indicator.Set(n.step%2 == 0)

	pattern := n.profiles[n.profile]
	if n.step < len(pattern) && pattern[n.step] > 0 {
		n.tones.EmitTone(pattern[n.step], ToneDuration)
	}

	n.step++
	if n.step >= n.stepCount {
		n.active = false
		n.indicator.Set(false)
	}
}
