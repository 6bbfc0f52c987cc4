package i18n_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"meeting-room-bot/i18n"
	"meeting-room-bot/model"
)

func TestTSubstitutesParams(t *testing.T) {
	got := i18n.T(model.LangRU, "welcome", i18n.P{"name": "Иван"})
	assert.Contains(t, got, "Иван")
	assert.NotContains(t, got, "{name}")
}

func TestTFallsBackToRussian(t *testing.T) {
	got := i18n.T(model.Language("fr"), "btn_help", nil)
	assert.Equal(t, i18n.T(model.LangRU, "btn_help", nil), got)
}

func TestTUnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "no_such_key", i18n.T(model.LangAZ, "no_such_key", nil))
}

func TestBothLanguagesCoverSameKeys(t *testing.T) {
	// Every key must resolve in both languages, otherwise the az table
	// silently falls through to returning the key.
	keys := []string{
		"welcome", "main_menu", "select_date", "select_time", "select_duration",
		"enter_description", "booking_success", "time_already_booked",
		"my_bookings_empty", "booking_cancelled", "cancel_error",
		"help_title", "help_rules", "stats_title", "stats_empty",
	}
	for _, k := range keys {
		assert.NotEqual(t, k, i18n.T(model.LangRU, k, nil), "ru missing %s", k)
		assert.NotEqual(t, k, i18n.T(model.LangAZ, k, nil), "az missing %s", k)
	}
}

func TestFormatDate(t *testing.T) {
	// 2024-01-01 is a Monday.
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Пн, 1 января", i18n.FormatDate(model.LangRU, d))
	assert.Equal(t, "Be, 1 yanvar", i18n.FormatDate(model.LangAZ, d))
}

func TestWeekdayMapping(t *testing.T) {
	assert.Equal(t, "Вс", i18n.Weekday(model.LangRU, time.Sunday))
	assert.Equal(t, "Сб", i18n.Weekday(model.LangRU, time.Saturday))
	assert.Equal(t, "Ba", i18n.Weekday(model.LangAZ, time.Sunday))
}
