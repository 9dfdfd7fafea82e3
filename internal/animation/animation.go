// Package animation validates section animations and renders them as CSS.
package animation

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

var ErrInvalidConfig = errors.New("invalid animation")

// Config is one CSS animation attached to a section element.
type Config struct {
	Type           string   `json:"type"`
	Duration       string   `json:"duration"`
	Timing         string   `json:"timing"`
	Delay          string   `json:"delay,omitempty"`
	IterationCount string   `json:"iterationCount,omitempty"`
	Intensity      *float64 `json:"intensity,omitempty"`
}

var (
	types           = []string{"pulse", "ping", "bgOpacity", "scaleup", "scaledown"}
	timingFunctions = []string{"ease", "ease-in", "ease-out", "ease-in-out", "linear"}

	durationRe    = regexp.MustCompile(`^\d+(\.\d+)?s$`)
	cubicBezierRe = regexp.MustCompile(`^cubic-bezier\(\s*-?\d*\.?\d+\s*(,\s*-?\d*\.?\d+\s*){3}\)$`)
)

const maxIntensity = 10

// Types lists the supported animation names.
func Types() []string { return slices.Clone(types) }

// TimingFunctions lists the named timing functions. cubic-bezier(...) is
// accepted as well.
func TimingFunctions() []string { return slices.Clone(timingFunctions) }

var defaults = map[string]Config{
	"pulse":     {Type: "pulse", Duration: "1s", Timing: "ease-in-out", Delay: "0s", IterationCount: "1"},
	"ping":      {Type: "ping", Duration: "1s", Timing: "cubic-bezier(0, 0, 0.2, 1)", Delay: "0s", IterationCount: "1"},
	"bgOpacity": {Type: "bgOpacity", Duration: "0.5s", Timing: "ease-in-out", Delay: "0s", IterationCount: "1"},
	"scaleup":   {Type: "scaleup", Duration: "0.3s", Timing: "ease-out", Delay: "0s", IterationCount: "1"},
	"scaledown": {Type: "scaledown", Duration: "0.3s", Timing: "ease-out", Delay: "0s", IterationCount: "1"},
}

// DefaultConfig returns the starting config for typ; unknown types get the
// pulse defaults.
func DefaultConfig(typ string) Config {
	if c, ok := defaults[typ]; ok {
		return c
	}
	return defaults["pulse"]
}

// Validate checks every field of c.
func Validate(c Config) error {
	if !slices.Contains(types, c.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, c.Type)
	}
	if !durationRe.MatchString(c.Duration) {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, c.Duration)
	}
	if !validTiming(c.Timing) {
		return fmt.Errorf("%w: timing %q", ErrInvalidConfig, c.Timing)
	}
	if c.Delay != "" && !durationRe.MatchString(c.Delay) {
		return fmt.Errorf("%w: delay %q", ErrInvalidConfig, c.Delay)
	}
	if c.IterationCount != "" && !validIterationCount(c.IterationCount) {
		return fmt.Errorf("%w: iteration count %q", ErrInvalidConfig, c.IterationCount)
	}
	if c.Intensity != nil && (*c.Intensity <= 0 || *c.Intensity > maxIntensity) {
		return fmt.Errorf("%w: intensity %v out of (0,%d]", ErrInvalidConfig, *c.Intensity, maxIntensity)
	}
	return nil
}

func validTiming(t string) bool {
	return slices.Contains(timingFunctions, t) || cubicBezierRe.MatchString(t)
}

func validIterationCount(s string) bool {
	if s == "infinite" {
		return true
	}
	n, err := strconv.ParseFloat(s, 64)
	return err == nil && n > 0
}

// CSS renders c as a single animation declaration.
func CSS(c Config) string {
	delay := c.Delay
	if delay == "" {
		delay = "0s"
	}
	count := c.IterationCount
	if count == "" {
		count = "1"
	}
	return fmt.Sprintf("animation: %s %s %s %s %s;", c.Type, c.Duration, c.Timing, delay, count)
}

var previews = map[string]string{
	"pulse":     "🫀 پالس - تغییر اندازه و شفافیت",
	"ping":      "📡 پینگ - موج انتشار",
	"bgOpacity": "🌫️ شفافیت پس‌زمینه",
	"scaleup":   "🔍 بزرگ‌نمایی",
	"scaledown": "🔎 کوچک‌نمایی",
}

// Preview returns the editor label for typ, or typ itself.
func Preview(typ string) string {
	if p, ok := previews[typ]; ok {
		return p
	}
	return typ
}

// Info describes one animation type for editor pickers.
type Info struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Default Config `json:"default"`
}

// Catalog lists every animation type with its label and defaults.
func Catalog() []Info {
	out := make([]Info, 0, len(types))
	for _, t := range types {
		out = append(out, Info{Type: t, Label: Preview(t), Default: DefaultConfig(t)})
	}
	return out
}
