// Package stylecmd turns short Persian style instructions such as
// "فاصله از بالا را به 20 پیکسل بذار" into section setting updates.
package stylecmd

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoMatch = errors.New("instruction not understood")

type rule struct {
	key string
	re  *regexp.Regexp
}

// verb and the optional "to"/"px" fragments shared by most rules.
const (
	obj   = `\s?(?:را|رو)\s?`
	to    = `(?:به|برامی)?\s?`
	px    = `\s?(?:پیکسل)?`
	verb  = `\s?(?:بذار|تنظیم کن|کن)`
	num   = `(\d+)`
	value = `(.*?)`
)

var rules = []rule{
	{"paddingTop", regexp.MustCompile(`(?:فاصله|پدینگ)\s?(?:از\s)?بالا(?:یی)?` + obj + to + num + px + verb)},
	{"paddingBottom", regexp.MustCompile(`(?:فاصله|پدینگ)\s?(?:از\s)?پایین(?:ی)?` + obj + to + num + px + verb)},
	{"marginTop", regexp.MustCompile(`(?:حاشیه|مارجین)\s?(?:از\s)?بالا(?:یی)?` + obj + to + num + px + verb)},
	{"marginBottom", regexp.MustCompile(`(?:حاشیه|مارجین)\s?(?:از\s)?پایین(?:ی)?` + obj + to + num + px + verb)},
	{"width", regexp.MustCompile(`(?:عرض|پهنا)(?:ی)?` + obj + to + num + px + verb)},
	{"height", regexp.MustCompile(`(?:ارتفاع|طول)(?:ی)?` + obj + to + num + px + verb)},
	{"fontSize", regexp.MustCompile(`(?:سایز|اندازه)\s?(?:فونت|متن)(?:ی)?` + obj + to + num + px + verb)},
	{"borderRadius", regexp.MustCompile(`(?:گردی|شعاع)\s?(?:گوشه‌ها|لبه‌ها)(?:ی)?` + obj + to + num + px + verb)},
	{"opacity", regexp.MustCompile(`(?:شفافیت|تاری)(?:ی)?` + obj + to + num + `\s?(?:درصد)?` + verb)},
	{"backgroundColor", regexp.MustCompile(`(?:رنگ|کالر)\s?(?:پس زمینه|بک گراند|زمینه)(?:ی)?` + obj + value + verb)},
	{"color", regexp.MustCompile(`(?:رنگ|کالر)\s?(?:متن|فونت)(?:ی)?` + obj + value + verb)},
	{"display", regexp.MustCompile(`(?:نمایش|دیسپلی)(?:ی)?` + obj + value + verb)},
	{"position", regexp.MustCompile(`(?:موقعیت|پوزیشن)(?:ی)?` + obj + value + verb)},
	{"gridColumns", regexp.MustCompile(`(?:تعداد|شمار)\s?(?:ستون|کالم)(?:ها)?` + obj + to + num + verb)},
}

// Keys lists the setting keys an instruction can change, in match order.
func Keys() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.key
	}
	return out
}

// Persian and Arabic-Indic digits are read as ASCII.
var digits = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// Parse extracts every setting the instruction mentions. Numeric captures
// become ints; everything else stays a trimmed string. ErrNoMatch is
// returned when nothing matched.
func Parse(input string) (map[string]any, error) {
	input = digits.Replace(strings.TrimSpace(input))
	updates := map[string]any{}
	for _, r := range rules {
		m := r.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			updates[r.key] = n
		} else {
			updates[r.key] = v
		}
	}
	if len(updates) == 0 {
		return nil, ErrNoMatch
	}
	return updates, nil
}
