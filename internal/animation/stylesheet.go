package animation

import (
	"errors"
	"fmt"
	"strings"

	"sitebuilder/internal/domain"
)

// ValidateLayout checks every effect embedded in l's sections. All failures
// are reported, each prefixed with the section id and path.
func ValidateLayout(l *domain.Layout) error {
	var errs []error
	eachSection(l, func(id string, s domain.Section) {
		for _, f := range CollectEffects(s.Blocks) {
			if err := ValidateEffect(f.Effect); err != nil {
				errs = append(errs, fmt.Errorf("%s blocks.%s: %w", id, f.Path, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Stylesheet renders one rule per valid effect in l. Selectors are
// "[data-section=<id>][data-path=<path>]" followed by the pseudo-class.
func Stylesheet(l *domain.Layout) string {
	var b strings.Builder
	eachSection(l, func(id string, s domain.Section) {
		for _, f := range CollectEffects(s.Blocks) {
			if ValidateEffect(f.Effect) != nil {
				continue
			}
			fmt.Fprintf(&b, "[data-section=%s][data-path=%s]%s {\n  %s\n}\n",
				cssString(id), cssString(f.Path), selector(f.Effect.Type), CSS(f.Effect.Animation))
		}
	})
	return b.String()
}

func eachSection(l *domain.Layout, fn func(id string, s domain.Section)) {
	if l == nil {
		return
	}
	if h := l.Sections.SectionHeader; h != nil {
		fn(domain.SectionHeaderKey, *h)
	}
	for _, s := range l.Sections.Children.Sections {
		fn(s.Type, s)
	}
	if f := l.Sections.SectionFooter; f != nil {
		fn(domain.SectionFooterKey, *f)
	}
}

// cssString quotes s as a CSS string: NUL becomes U+FFFD, control
// characters become hex escapes, quote and backslash are escaped.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
