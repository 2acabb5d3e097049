package agecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWithWeekday(t *testing.T) {
	d := mustDate(t, "2024-04-15")
	assert.Equal(t, "2024-04-15 (Mon)", FormatWithWeekday(d))
}

func TestWeekdayFormatter_Locales(t *testing.T) {
	d := mustDate(t, "2024-04-15")

	cases := map[string]string{
		"ko":    "2024-04-15 (월)",
		"ko-KR": "2024-04-15 (월)",
		"fr-GN": "2024-04-15 (lun.)",
		"en-US": "2024-04-15 (Mon)",
		"":      "2024-04-15 (Mon)",
		"zz!!":  "2024-04-15 (Mon)",
	}
	for locale, want := range cases {
		assert.Equal(t, want, NewWeekdayFormatter(locale).Format(d), "locale %q", locale)
	}
}

func TestWeekdayFormatter_Locale(t *testing.T) {
	assert.Equal(t, "ko", NewWeekdayFormatter("ko-KR").Locale())
	assert.Equal(t, "en", NewWeekdayFormatter("de").Locale())
}
