package agecalc

import (
	"time"

	"golang.org/x/text/language"
)

var weekdayLabels = map[language.Tag][7]string{
	language.English: {"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	language.Korean:  {"일", "월", "화", "수", "목", "금", "토"},
	language.French:  {"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
}

// English stays first so it wins when nothing matches.
var supportedLocales = []language.Tag{language.English, language.Korean, language.French}

var localeMatcher = language.NewMatcher(supportedLocales)

// WeekdayFormatter renders dates with a localized day-of-week label.
type WeekdayFormatter struct {
	tag    language.Tag
	labels [7]string
}

// NewWeekdayFormatter picks the closest supported locale for a BCP-47 tag such as "ko-KR".
func NewWeekdayFormatter(locale string) WeekdayFormatter {
	requested, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(requested) == 0 {
		requested = []language.Tag{language.English}
	}
	_, idx, _ := localeMatcher.Match(requested...)
	tag := supportedLocales[idx]
	return WeekdayFormatter{tag: tag, labels: weekdayLabels[tag]}
}

// Locale returns the matched locale.
func (f WeekdayFormatter) Locale() string {
	return f.tag.String()
}

// Label returns the short weekday label for t.
func (f WeekdayFormatter) Label(t time.Time) string {
	labels := f.labels
	if labels[0] == "" {
		labels = weekdayLabels[language.English]
	}
	return labels[t.Weekday()]
}

// Format renders t as "YYYY-MM-DD (label)".
func (f WeekdayFormatter) Format(t time.Time) string {
	return t.Format(DateLayout) + " (" + f.Label(t) + ")"
}

// FormatWithWeekday renders t with an English weekday label.
func FormatWithWeekday(t time.Time) string {
	return WeekdayFormatter{}.Format(t)
}
