// Package i18n holds the bilingual (ru/az) string tables and the lookup
// used by the bot front-end. The engine never touches this package; it
// returns structured results and the front-end renders them.
package i18n

import (
	"strings"
	"time"

	"meeting-room-bot/model"
)

// P carries substitution parameters for placeholders like {name}.
type P map[string]string

// T returns the translated text for key, substituting params. Unknown
// languages fall back to Russian; unknown keys return the key itself so
// a missing translation is visible instead of silent.
func T(lang model.Language, key string, params P) string {
	table, ok := tables[lang]
	if !ok {
		table = tables[model.LangRU]
	}
	text, ok := table[key]
	if !ok {
		return key
	}
	if len(params) == 0 {
		return text
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

var weekdayKeys = [...]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

var monthKeys = [...]string{
	time.January:   "january",
	time.February:  "february",
	time.March:     "march",
	time.April:     "april",
	time.May:       "may",
	time.June:      "june",
	time.July:      "july",
	time.August:    "august",
	time.September: "september",
	time.October:   "october",
	time.November:  "november",
	time.December:  "december",
}

// Weekday returns the short localized weekday name.
func Weekday(lang model.Language, d time.Weekday) string {
	return T(lang, weekdayKeys[d], nil)
}

// Month returns the localized month name in genitive form.
func Month(lang model.Language, m time.Month) string {
	return T(lang, monthKeys[m], nil)
}

// FormatDate renders a date as "Пн, 2 января" / "Be, 2 yanvar".
func FormatDate(lang model.Language, t time.Time) string {
	return Weekday(lang, t.Weekday()) + ", " + t.Format("2") + " " + Month(lang, t.Month())
}

var tables = map[model.Language]map[string]string{
	model.LangRU: {
		"select_language":   "Выберите язык / Dil seçin",
		"language_russian":  "🇷🇺 Русский",
		"language_azerbaijani": "🇦🇿 Azərbaycan",
		"language_selected": "✅ Язык выбран",

		"welcome": "Привет, {name}! 👋\n\nЯ помогу вам забронировать переговорную комнату.\nВыберите действие:",

		"btn_view_bookings":   "📅 Посмотреть брони",
		"btn_create_booking":  "➕ Забронировать комнату",
		"btn_my_bookings":     "🗑 Мои брони",
		"btn_help":            "ℹ️ Помощь",
		"btn_back":            "◀️ Назад",
		"btn_cancel":          "◀️ Отмена",
		"btn_back_to_menu":    "◀️ Назад в меню",
		"btn_main_menu":       "◀️ Главное меню",
		"btn_change_language": "🌐 Сменить язык",

		"main_menu": "Главное меню. Выберите действие:",

		"no_bookings":       "📅 На ближайшие 7 дней броней нет.\n\nКомната свободна!",
		"upcoming_bookings": "📅 <b>Брони на ближайшие 7 дней:</b>\n\n",

		"select_date":       "📅 <b>Выберите дату бронирования:</b>",
		"select_time":       "🕐 <b>Выберите время начала</b>\n\nДата: {date}\n✅ - свободно, ❌ - занято",
		"select_duration":   "⏱ <b>Выберите длительность</b>\n\nНачало: {time}",
		"enter_description": "📝 <b>Введите описание встречи</b>\n\nДата: {date}\nВремя: {start_time} - {end_time}\nДлительность: {duration} мин\n\nНапишите, для чего нужна комната:",

		"duration_30":  "30 минут",
		"duration_60":  "1 час",
		"duration_90":  "1.5 часа",
		"duration_120": "2 часа",
		"duration_180": "3 часа",

		"today":     "Сегодня ({date})",
		"tomorrow":  "Завтра ({date})",
		"monday":    "Пн",
		"tuesday":   "Вт",
		"wednesday": "Ср",
		"thursday":  "Чт",
		"friday":    "Пт",
		"saturday":  "Сб",
		"sunday":    "Вс",

		"january":   "января",
		"february":  "февраля",
		"march":     "марта",
		"april":     "апреля",
		"may":       "мая",
		"june":      "июня",
		"july":      "июля",
		"august":    "августа",
		"september": "сентября",
		"october":   "октября",
		"november":  "ноября",
		"december":  "декабря",

		"time_occupied":       "Это время занято!",
		"booking_success":     "✅ <b>Бронирование создано!</b>\n\n📅 Дата: {date}\n⏰ Время: {start_time} - {end_time}\n📝 Описание: {description}",
		"booking_error":       "❌ Произошла ошибка при создании бронирования. Попробуйте еще раз.",
		"time_already_booked": "❌ К сожалению, это время уже забронировано.\nПопробуйте выбрать другое время.",

		"my_bookings_empty":  "У вас пока нет активных бронирований.",
		"my_bookings_title":  "<b>Ваши бронирования:</b>\n\n",
		"btn_cancel_booking": "🗑 Отменить ({time})",
		"booking_cancelled":  "✅ Бронирование отменено",
		"cancel_error":       "❌ Ошибка при отмене",

		"stats_title": "📊 <b>Статистика бронирований</b>\n\n🗂 Активных броней: {total}\n📅 Сегодня: {today}\n🏆 Чаще всех бронирует: {top}",
		"stats_empty": "📊 Пока нет активных бронирований.",

		"help_title":  "<b>ℹ️ Справка по использованию бота</b>\n\n<b>Основные функции:</b>\n\n",
		"help_view":   "📅 <b>Посмотреть брони</b> - показывает все брони на ближайшую неделю\n\n",
		"help_create": "➕ <b>Забронировать комнату</b> - создать новое бронирование:\n   1. Выберите дату\n   2. Выберите время начала\n   3. Выберите длительность\n   4. Опишите цель встречи\n\n",
		"help_my":     "🗑 <b>Мои брони</b> - ваши активные бронирования с возможностью отмены\n\n",
		"help_rules":  "<b>Правила:</b>\n• Комнату можно бронировать с 08:00 до 20:00\n• Минимальная длительность - 30 минут\n• Вы можете отменить только свои брони\n• Бронировать можно на 7 дней вперед",
	},

	model.LangAZ: {
		"select_language":   "Выберите язык / Dil seçin",
		"language_russian":  "🇷🇺 Русский",
		"language_azerbaijani": "🇦🇿 Azərbaycan",
		"language_selected": "✅ Dil seçildi",

		"welcome": "Salam, {name}! 👋\n\nMən sizə görüş otağını rezerv etməyə kömək edəcəyəm.\nƏməliyyatı seçin:",

		"btn_view_bookings":   "📅 Rezervləri göstər",
		"btn_create_booking":  "➕ Otağı rezerv et",
		"btn_my_bookings":     "🗑 Mənim rezervlərim",
		"btn_help":            "ℹ️ Kömək",
		"btn_back":            "◀️ Geri",
		"btn_cancel":          "◀️ Ləğv et",
		"btn_back_to_menu":    "◀️ Menyuya qayıt",
		"btn_main_menu":       "◀️ Əsas menyu",
		"btn_change_language": "🌐 Dili dəyiş",

		"main_menu": "Əsas menyu. Əməliyyatı seçin:",

		"no_bookings":       "📅 Yaxın 7 gün üçün rezerv yoxdur.\n\nOtaq boşdur!",
		"upcoming_bookings": "📅 <b>Yaxın 7 gün üçün rezervlər:</b>\n\n",

		"select_date":       "📅 <b>Rezerv tarixini seçin:</b>",
		"select_time":       "🕐 <b>Başlama vaxtını seçin</b>\n\nTarix: {date}\n✅ - boş, ❌ - məşğul",
		"select_duration":   "⏱ <b>Müddəti seçin</b>\n\nBaşlama: {time}",
		"enter_description": "📝 <b>Görüşün təsvirini daxil edin</b>\n\nTarix: {date}\nVaxt: {start_time} - {end_time}\nMüddət: {duration} dəq\n\nOtaq nə üçün lazımdır:",

		"duration_30":  "30 dəqiqə",
		"duration_60":  "1 saat",
		"duration_90":  "1.5 saat",
		"duration_120": "2 saat",
		"duration_180": "3 saat",

		"today":     "Bu gün ({date})",
		"tomorrow":  "Sabah ({date})",
		"monday":    "Be",
		"tuesday":   "Ça",
		"wednesday": "Çə",
		"thursday":  "Ca",
		"friday":    "Cü",
		"saturday":  "Şə",
		"sunday":    "Ba",

		"january":   "yanvar",
		"february":  "fevral",
		"march":     "mart",
		"april":     "aprel",
		"may":       "may",
		"june":      "iyun",
		"july":      "iyul",
		"august":    "avqust",
		"september": "sentyabr",
		"october":   "oktyabr",
		"november":  "noyabr",
		"december":  "dekabr",

		"time_occupied":       "Bu vaxt məşğuldur!",
		"booking_success":     "✅ <b>Rezerv yaradıldı!</b>\n\n📅 Tarix: {date}\n⏰ Vaxt: {start_time} - {end_time}\n📝 Təsvir: {description}",
		"booking_error":       "❌ Rezerv yaradılarkən xəta baş verdi. Yenidən cəhd edin.",
		"time_already_booked": "❌ Təəssüf ki, bu vaxt artıq rezerv edilib.\nBaşqa vaxt seçin.",

		"my_bookings_empty":  "Hələ aktiv rezerviniz yoxdur.",
		"my_bookings_title":  "<b>Sizin rezervləriniz:</b>\n\n",
		"btn_cancel_booking": "🗑 Ləğv et ({time})",
		"booking_cancelled":  "✅ Rezerv ləğv edildi",
		"cancel_error":       "❌ Ləğv edərkən xəta",

		"stats_title": "📊 <b>Rezervasiya statistikası</b>\n\n🗂 Aktiv rezervlər: {total}\n📅 Bu gün: {today}\n🏆 Ən çox rezerv edən: {top}",
		"stats_empty": "📊 Hələ aktiv rezerv yoxdur.",

		"help_title":  "<b>ℹ️ Botdan istifadə üzrə kömək</b>\n\n<b>Əsas funksiyalar:</b>\n\n",
		"help_view":   "📅 <b>Rezervləri göstər</b> - yaxın həftə üçün bütün rezervləri göstərir\n\n",
		"help_create": "➕ <b>Otağı rezerv et</b> - yeni rezerv yaradın:\n   1. Tarixi seçin\n   2. Başlama vaxtını seçin\n   3. Müddəti seçin\n   4. Görüşün məqsədini yazın\n\n",
		"help_my":     "🗑 <b>Mənim rezervlərim</b> - aktiv rezervləriniz və ləğv etmək imkanı\n\n",
		"help_rules":  "<b>Qaydalar:</b>\n• Otağı 08:00-dan 20:00-a kimi rezerv etmək olar\n• Minimum müddət - 30 dəqiqə\n• Yalnız öz rezervlərinizi ləğv edə bilərsiniz\n• 7 gün qabaqcadan rezerv etmək olar",
	},
}
