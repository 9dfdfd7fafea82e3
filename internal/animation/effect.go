package animation

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Effect triggers an animation on hover or click.
type Effect struct {
	Type      string `json:"type"`
	Animation Config `json:"animation"`
}

const (
	EffectHover = "hover"
	EffectClick = "click"
)

var effectTypes = []string{EffectHover, EffectClick}

func EffectTypes() []string { return slices.Clone(effectTypes) }

func DefaultEffect(effectType, animationType string) Effect {
	return Effect{Type: effectType, Animation: DefaultConfig(animationType)}
}

func ValidateEffect(e Effect) error {
	if !slices.Contains(effectTypes, e.Type) {
		return fmt.Errorf("%w: unknown effect %q", ErrInvalidConfig, e.Type)
	}
	return Validate(e.Animation)
}

// EffectCSS renders e as a pseudo-class rule: ":hover" for hover, ":active"
// for click.
func EffectCSS(e Effect) string {
	return fmt.Sprintf("%s {\n  %s\n}\n", selector(e.Type), CSS(e.Animation))
}

func selector(effectType string) string {
	if effectType == EffectHover {
		return ":hover"
	}
	return ":active"
}

func EffectPreview(e Effect) string {
	trigger := "👆 کلیک"
	if e.Type == EffectHover {
		trigger = "🖱️ هاور"
	}
	return trigger + " - " + Preview(e.Animation.Type)
}

// Found is an effect located inside a section's blocks. Path is dotted from
// the blocks root, e.g. "setting.animation" or "slides.2.animation".
type Found struct {
	Path   string `json:"path"`
	Effect Effect `json:"effect"`
}

// CollectEffects walks blocks and returns every value shaped like an effect:
// a map whose "type" is hover or click and whose "animation" is a map.
// Results are ordered by path.
func CollectEffects(blocks map[string]any) []Found {
	var out []Found
	walk(blocks, nil, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func walk(v any, path []string, out *[]Found) {
	switch t := v.(type) {
	case map[string]any:
		if e, ok := asEffect(t); ok {
			*out = append(*out, Found{Path: strings.Join(path, "."), Effect: e})
			return
		}
		for k, child := range t {
			walk(child, append(slices.Clip(path), k), out)
		}
	case []any:
		for i, child := range t {
			walk(child, append(slices.Clip(path), fmt.Sprint(i)), out)
		}
	}
}

func asEffect(m map[string]any) (Effect, bool) {
	typ, _ := m["type"].(string)
	if typ != EffectHover && typ != EffectClick {
		return Effect{}, false
	}
	anim, ok := m["animation"].(map[string]any)
	if !ok {
		return Effect{}, false
	}
	e := Effect{Type: typ}
	e.Animation.Type, _ = anim["type"].(string)
	e.Animation.Duration, _ = anim["duration"].(string)
	e.Animation.Timing, _ = anim["timing"].(string)
	e.Animation.Delay, _ = anim["delay"].(string)
	e.Animation.IterationCount = stringish(anim["iterationCount"])
	switch n := anim["intensity"].(type) {
	case float64:
		e.Animation.Intensity = &n
	case int:
		f := float64(n)
		e.Animation.Intensity = &f
	}
	return e, true
}

// stringish accepts iteration counts saved as either strings or numbers.
func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, int:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
