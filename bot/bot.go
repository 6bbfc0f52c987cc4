package bot

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/telebot.v3"

	"meeting-room-bot/engine"
	"meeting-room-bot/i18n"
	"meeting-room-bot/model"
	"meeting-room-bot/store"
)

// User states
const (
	StateNone = iota
	StateAwaitDescription
)

// Duration presets offered on the keyboard, in minutes. Front-end
// affordance only; the engine accepts any interval.
var durations = []int{30, 60, 90, 120, 180}

// Config carries the front-end knobs.
type Config struct {
	MaxBookingDays int
}

type Bot struct {
	B      *telebot.Bot
	Store  *store.Store
	Engine *engine.Engine
	Cfg    Config

	// State management
	states    map[int64]int
	tempData  map[int64]map[string]string
	stateLock sync.RWMutex
}

// Inline buttons (static uniques; texts are filled in per language at
// render time)
var (
	btnView       = telebot.Btn{Unique: "view_bookings"}
	btnCreate     = telebot.Btn{Unique: "create_booking"}
	btnMy         = telebot.Btn{Unique: "my_bookings"}
	btnHelp       = telebot.Btn{Unique: "help"}
	btnBack       = telebot.Btn{Unique: "back_to_menu"}
	btnChangeLang = telebot.Btn{Unique: "change_language"}
	btnLang       = telebot.Btn{Unique: "lang"}
	btnDate       = telebot.Btn{Unique: "date"}
	btnTime       = telebot.Btn{Unique: "time"}
	btnOccupied   = telebot.Btn{Unique: "occupied"}
	btnDur        = telebot.Btn{Unique: "dur"}
	btnCancelBkg  = telebot.Btn{Unique: "cancel"}
)

func New(token string, st *store.Store, eng *engine.Engine, cfg Config) (*Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		B:        b,
		Store:    st,
		Engine:   eng,
		Cfg:      cfg,
		states:   make(map[int64]int),
		tempData: make(map[int64]map[string]string),
	}

	bot.registerHandlers()
	return bot, nil
}

func (bot *Bot) Start() {
	bot.B.Start()
}

func (bot *Bot) registerHandlers() {
	// Commands
	bot.B.Handle("/start", bot.handleStart)
	bot.B.Handle("/stats", bot.handleStats)

	// Inline buttons
	bot.B.Handle(&btnView, bot.handleView)
	bot.B.Handle(&btnCreate, bot.handleCreate)
	bot.B.Handle(&btnMy, bot.handleMy)
	bot.B.Handle(&btnHelp, bot.handleHelp)
	bot.B.Handle(&btnBack, bot.handleBack)
	bot.B.Handle(&btnChangeLang, bot.handleChangeLang)
	bot.B.Handle(&btnLang, bot.handleLang)
	bot.B.Handle(&btnDate, bot.handleDate)
	bot.B.Handle(&btnTime, bot.handleTime)
	bot.B.Handle(&btnOccupied, bot.handleOccupied)
	bot.B.Handle(&btnDur, bot.handleDur)
	bot.B.Handle(&btnCancelBkg, bot.handleCancelBooking)

	// Free text (meeting description)
	bot.B.Handle(telebot.OnText, bot.handleText)

	// Group events
	bot.B.Handle(telebot.OnAddedToGroup, bot.handleAddedToGroup)
	bot.B.Handle(telebot.OnUserJoined, bot.handleUserJoined)
}

// State helpers

func (bot *Bot) setState(userID int64, state int) {
	bot.stateLock.Lock()
	defer bot.stateLock.Unlock()
	bot.states[userID] = state
	if state == StateNone {
		delete(bot.tempData, userID)
	}
}

func (bot *Bot) getState(userID int64) int {
	bot.stateLock.RLock()
	defer bot.stateLock.RUnlock()
	return bot.states[userID]
}

func (bot *Bot) setTempData(userID int64, key, value string) {
	bot.stateLock.Lock()
	defer bot.stateLock.Unlock()
	if bot.tempData[userID] == nil {
		bot.tempData[userID] = make(map[string]string)
	}
	bot.tempData[userID][key] = value
}

func (bot *Bot) getTempData(userID int64, key string) string {
	bot.stateLock.RLock()
	defer bot.stateLock.RUnlock()
	if bot.tempData[userID] == nil {
		return ""
	}
	return bot.tempData[userID][key]
}

// lang returns the user's stored language, empty when never chosen.
func (bot *Bot) lang(userID int64) model.Language {
	p, err := bot.Store.GetPreference(userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("load preference")
		return ""
	}
	if p == nil {
		return ""
	}
	return p.Language
}

// langOr falls back to Russian for rendering when no language is set.
func (bot *Bot) langOr(userID int64) model.Language {
	if l := bot.lang(userID); l.Valid() {
		return l
	}
	return model.LangRU
}

func (bot *Bot) deepLink() string {
	return fmt.Sprintf("https://t.me/%s?start=booking", bot.B.Me.Username)
}

// reply edits the callback message when there is one, otherwise sends.
func reply(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if c.Callback() != nil {
		return c.Edit(text, markup, telebot.ModeHTML)
	}
	return c.Send(text, markup, telebot.ModeHTML)
}

// Keyboards

func (bot *Bot) languageKeyboard(withBack bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	ru := menu.Data(i18n.T(model.LangRU, "language_russian", nil), btnLang.Unique, "ru")
	az := menu.Data(i18n.T(model.LangAZ, "language_azerbaijani", nil), btnLang.Unique, "az")
	rows := []telebot.Row{menu.Row(ru), menu.Row(az)}
	if withBack {
		rows = append(rows, menu.Row(menu.Data(i18n.T(model.LangRU, "btn_back", nil), btnBack.Unique)))
	}
	menu.Inline(rows...)
	return menu
}

func (bot *Bot) mainMenuKeyboard(lang model.Language) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(i18n.T(lang, "btn_view_bookings", nil), btnView.Unique)),
		menu.Row(menu.Data(i18n.T(lang, "btn_create_booking", nil), btnCreate.Unique)),
		menu.Row(menu.Data(i18n.T(lang, "btn_my_bookings", nil), btnMy.Unique)),
		menu.Row(menu.Data(i18n.T(lang, "btn_help", nil), btnHelp.Unique)),
		menu.Row(menu.Data(i18n.T(lang, "btn_change_language", nil), btnChangeLang.Unique)),
	)
	return menu
}

func (bot *Bot) groupKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("📅 Посмотреть брони / Bronları göstər", btnView.Unique)),
		menu.Row(menu.URL("➕ Забронировать / Rezerv et", bot.deepLink())),
	)
	return menu
}

func (bot *Bot) backKeyboard(lang model.Language) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data(i18n.T(lang, "btn_back", nil), btnBack.Unique)))
	return menu
}

// Handlers

const groupGreeting = "👋 Привет! Я бот для бронирования Meeting Room 2A\n" +
	"👋 Salam! Mən Meeting Room 2A rezervasiya botuyam\n\n" +
	"📋 RU: Нажмите кнопки для просмотра и создания броней\n" +
	"📋 AZ: Rezervləri görmək və yaratmaq üçün düymələrə basın"

func (bot *Bot) handleStart(c telebot.Context) error {
	user := c.Sender()
	bot.setState(user.ID, StateNone)

	if c.Chat().Type != telebot.ChatPrivate {
		return c.Send(groupGreeting, bot.groupKeyboard())
	}

	if !bot.lang(user.ID).Valid() {
		return c.Send(i18n.T(model.LangRU, "select_language", nil), bot.languageKeyboard(false))
	}

	lang := bot.langOr(user.ID)
	text := i18n.T(lang, "welcome", i18n.P{"name": user.FirstName})
	return c.Send(text, bot.mainMenuKeyboard(lang), telebot.ModeHTML)
}

func (bot *Bot) handleLang(c telebot.Context) error {
	user := c.Sender()
	lang := model.Language(c.Data())
	if !lang.Valid() {
		return c.Respond()
	}

	err := bot.Store.SetPreference(&model.UserPreference{
		UserID:    user.ID,
		Language:  lang,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		UpdatedAt: bot.Engine.Now(),
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("save preference")
		return c.Respond(&telebot.CallbackResponse{Text: i18n.T(lang, "booking_error", nil)})
	}

	c.Respond(&telebot.CallbackResponse{Text: i18n.T(lang, "language_selected", nil), ShowAlert: true})

	text := i18n.T(lang, "welcome", i18n.P{"name": user.FirstName})
	return c.Edit(text, bot.mainMenuKeyboard(lang), telebot.ModeHTML)
}

func (bot *Bot) handleChangeLang(c telebot.Context) error {
	return c.Edit(i18n.T(model.LangRU, "select_language", nil), bot.languageKeyboard(true))
}

func (bot *Bot) handleBack(c telebot.Context) error {
	user := c.Sender()
	bot.setState(user.ID, StateNone)
	lang := bot.langOr(user.ID)

	if c.Chat().Type != telebot.ChatPrivate {
		return c.Edit(groupGreeting, bot.groupKeyboard())
	}
	return c.Edit(i18n.T(lang, "main_menu", nil), bot.mainMenuKeyboard(lang), telebot.ModeHTML)
}

// 📅 Upcoming bookings, grouped by day
func (bot *Bot) handleView(c telebot.Context) error {
	lang := bot.langOr(c.Sender().ID)

	bookings, err := bot.Engine.ListUpcoming(bot.Cfg.MaxBookingDays)
	if err != nil {
		log.Error().Err(err).Msg("list upcoming")
		return reply(c, i18n.T(lang, "booking_error", nil), bot.backKeyboard(lang))
	}

	var text string
	if len(bookings) == 0 {
		text = i18n.T(lang, "no_bookings", nil)
	} else {
		text = i18n.T(lang, "upcoming_bookings", nil)
		var currentDay string
		for _, b := range bookings {
			day := b.StartTime.Format("2006-01-02")
			if day != currentDay {
				currentDay = day
				text += fmt.Sprintf("\n<b>%s</b>\n", i18n.FormatDate(lang, b.StartTime))
			}
			text += fmt.Sprintf("⏰ %s - %s\n👤 %s\n📝 %s\n──────────────\n",
				b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
				b.OwnerName, b.Description)
		}
	}

	return reply(c, text, bot.backKeyboard(lang))
}

// ➕ Booking flow: date
func (bot *Bot) handleCreate(c telebot.Context) error {
	user := c.Sender()
	bot.setState(user.ID, StateNone)
	lang := bot.langOr(user.ID)

	now := bot.Engine.Now()
	menu := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for i := 0; i < bot.Cfg.MaxBookingDays; i++ {
		date := now.AddDate(0, 0, i)
		var label string
		switch i {
		case 0:
			label = i18n.T(lang, "today", i18n.P{"date": date.Format("02.01")})
		case 1:
			label = i18n.T(lang, "tomorrow", i18n.P{"date": date.Format("02.01")})
		default:
			label = i18n.FormatDate(lang, date)
		}
		rows = append(rows, menu.Row(menu.Data(label, btnDate.Unique, date.Format("2006-01-02"))))
	}
	rows = append(rows, menu.Row(menu.Data(i18n.T(lang, "btn_back", nil), btnBack.Unique)))
	menu.Inline(rows...)

	return reply(c, i18n.T(lang, "select_date", nil), menu)
}

// Booking flow: start time
func (bot *Bot) handleDate(c telebot.Context) error {
	user := c.Sender()
	lang := bot.langOr(user.ID)

	date, err := time.ParseInLocation("2006-01-02", c.Data(), bot.Engine.Now().Location())
	if err != nil {
		return c.Respond()
	}
	bot.setTempData(user.ID, "date", c.Data())

	slots, err := bot.Engine.DaySlots(date)
	if err != nil {
		log.Error().Err(err).Msg("day slots")
		return reply(c, i18n.T(lang, "booking_error", nil), bot.backKeyboard(lang))
	}

	menu := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, s := range slots {
		hhmm := s.Start.Format("15:04")
		if s.Free {
			rows = append(rows, menu.Row(menu.Data("✅ "+hhmm, btnTime.Unique, hhmm)))
		} else {
			rows = append(rows, menu.Row(menu.Data("❌ "+hhmm, btnOccupied.Unique)))
		}
	}
	rows = append(rows, menu.Row(menu.Data(i18n.T(lang, "btn_back", nil), btnCreate.Unique)))
	menu.Inline(rows...)

	text := i18n.T(lang, "select_time", i18n.P{"date": i18n.FormatDate(lang, date)})
	return c.Edit(text, menu, telebot.ModeHTML)
}

func (bot *Bot) handleOccupied(c telebot.Context) error {
	lang := bot.langOr(c.Sender().ID)
	return c.Respond(&telebot.CallbackResponse{
		Text:      i18n.T(lang, "time_occupied", nil),
		ShowAlert: true,
	})
}

// Booking flow: duration
func (bot *Bot) handleTime(c telebot.Context) error {
	user := c.Sender()
	lang := bot.langOr(user.ID)

	hhmm := c.Data()
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return c.Respond()
	}
	bot.setTempData(user.ID, "time", hhmm)

	menu := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, d := range durations {
		key := fmt.Sprintf("duration_%d", d)
		rows = append(rows, menu.Row(menu.Data(i18n.T(lang, key, nil), btnDur.Unique, strconv.Itoa(d))))
	}
	date := bot.getTempData(user.ID, "date")
	rows = append(rows, menu.Row(menu.Data(i18n.T(lang, "btn_back", nil), btnDate.Unique, date)))
	menu.Inline(rows...)

	text := i18n.T(lang, "select_duration", i18n.P{"time": hhmm})
	return c.Edit(text, menu, telebot.ModeHTML)
}

// Booking flow: description prompt
func (bot *Bot) handleDur(c telebot.Context) error {
	user := c.Sender()
	lang := bot.langOr(user.ID)

	duration, err := strconv.Atoi(c.Data())
	if err != nil || duration <= 0 {
		return c.Respond()
	}

	start, ok := bot.pendingStart(user.ID)
	if !ok {
		return bot.handleCreate(c)
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	bot.setTempData(user.ID, "duration", strconv.Itoa(duration))
	bot.setStateKeepData(user.ID, StateAwaitDescription)

	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data(i18n.T(lang, "btn_cancel", nil), btnCreate.Unique)))

	text := i18n.T(lang, "enter_description", i18n.P{
		"date":       i18n.FormatDate(lang, start),
		"start_time": start.Format("15:04"),
		"end_time":   end.Format("15:04"),
		"duration":   strconv.Itoa(duration),
	})
	return c.Edit(text, menu, telebot.ModeHTML)
}

// setStateKeepData switches state without dropping the accumulated
// selections.
func (bot *Bot) setStateKeepData(userID int64, state int) {
	bot.stateLock.Lock()
	defer bot.stateLock.Unlock()
	bot.states[userID] = state
}

// pendingStart assembles the start instant from the accumulated
// date/time selections.
func (bot *Bot) pendingStart(userID int64) (time.Time, bool) {
	dateStr := bot.getTempData(userID, "date")
	timeStr := bot.getTempData(userID, "time")
	if dateStr == "" || timeStr == "" {
		return time.Time{}, false
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, bot.Engine.Now().Location())
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}

// Booking flow: confirmation (free-text description)
func (bot *Bot) handleText(c telebot.Context) error {
	user := c.Sender()
	if bot.getState(user.ID) != StateAwaitDescription {
		return nil
	}
	lang := bot.langOr(user.ID)

	duration, err := strconv.Atoi(bot.getTempData(user.ID, "duration"))
	if err != nil {
		bot.setState(user.ID, StateNone)
		return c.Send(i18n.T(lang, "booking_error", nil))
	}
	start, ok := bot.pendingStart(user.ID)
	if !ok {
		bot.setState(user.ID, StateNone)
		return c.Send(i18n.T(lang, "booking_error", nil))
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	booking, err := bot.Engine.CreateBooking(user.ID, displayName(user), start, end, c.Text())
	bot.setState(user.ID, StateNone)

	switch {
	case err == nil:
		menu := &telebot.ReplyMarkup{}
		menu.Inline(
			menu.Row(menu.Data(i18n.T(lang, "btn_my_bookings", nil), btnMy.Unique)),
			menu.Row(menu.Data(i18n.T(lang, "btn_main_menu", nil), btnBack.Unique)),
		)
		text := i18n.T(lang, "booking_success", i18n.P{
			"date":        i18n.FormatDate(lang, booking.StartTime),
			"start_time":  booking.StartTime.Format("15:04"),
			"end_time":    booking.EndTime.Format("15:04"),
			"description": booking.Description,
		})
		return c.Send(text, menu, telebot.ModeHTML)

	case errors.Is(err, engine.ErrConflict):
		menu := &telebot.ReplyMarkup{}
		menu.Inline(menu.Row(menu.Data(i18n.T(lang, "btn_back_to_menu", nil), btnBack.Unique)))
		return c.Send(i18n.T(lang, "time_already_booked", nil), menu)

	default:
		log.Error().Err(err).Int64("user_id", user.ID).Msg("create booking")
		return c.Send(i18n.T(lang, "booking_error", nil))
	}
}

// 🗑 My bookings
func (bot *Bot) handleMy(c telebot.Context) error {
	user := c.Sender()
	lang := bot.langOr(user.ID)

	bookings, err := bot.Engine.ListForOwner(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("list owner bookings")
		return reply(c, i18n.T(lang, "booking_error", nil), bot.backKeyboard(lang))
	}

	menu := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	var text string
	if len(bookings) == 0 {
		text = i18n.T(lang, "my_bookings_empty", nil)
	} else {
		text = i18n.T(lang, "my_bookings_title", nil)
		for _, b := range bookings {
			text += fmt.Sprintf("📅 %s\n⏰ %s - %s\n📝 %s\n\n",
				i18n.FormatDate(lang, b.StartTime),
				b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
				b.Description)
			label := i18n.T(lang, "btn_cancel_booking", i18n.P{"time": b.StartTime.Format("02.01 15:04")})
			rows = append(rows, menu.Row(menu.Data(label, btnCancelBkg.Unique, strconv.FormatInt(b.ID, 10))))
		}
	}
	rows = append(rows, menu.Row(menu.Data(i18n.T(lang, "btn_back", nil), btnBack.Unique)))
	menu.Inline(rows...)

	return reply(c, text, menu)
}

func (bot *Bot) handleCancelBooking(c telebot.Context) error {
	user := c.Sender()
	lang := bot.langOr(user.ID)

	id, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond()
	}

	// NotOwner and NotFound both surface the same generic denial.
	if err := bot.Engine.CancelBooking(id, user.ID); err != nil {
		c.Respond(&telebot.CallbackResponse{Text: i18n.T(lang, "cancel_error", nil), ShowAlert: true})
	} else {
		c.Respond(&telebot.CallbackResponse{Text: i18n.T(lang, "booking_cancelled", nil), ShowAlert: true})
	}

	return bot.handleMy(c)
}

// ℹ️ Help
func (bot *Bot) handleHelp(c telebot.Context) error {
	lang := bot.langOr(c.Sender().ID)
	text := i18n.T(lang, "help_title", nil) +
		i18n.T(lang, "help_view", nil) +
		i18n.T(lang, "help_create", nil) +
		i18n.T(lang, "help_my", nil) +
		i18n.T(lang, "help_rules", nil)
	return reply(c, text, bot.backKeyboard(lang))
}

// 📊 /stats
func (bot *Bot) handleStats(c telebot.Context) error {
	lang := bot.langOr(c.Sender().ID)

	stats, err := bot.Engine.Statistics()
	if err != nil {
		log.Error().Err(err).Msg("statistics")
		return c.Send(i18n.T(lang, "booking_error", nil))
	}
	if stats.TotalActive == 0 {
		return c.Send(i18n.T(lang, "stats_empty", nil), telebot.ModeHTML)
	}

	top := stats.TopOwner
	if top == "" {
		top = "-"
	}
	text := i18n.T(lang, "stats_title", i18n.P{
		"total": strconv.FormatInt(stats.TotalActive, 10),
		"today": strconv.FormatInt(stats.Today, 10),
		"top":   top,
	})
	return c.Send(text, telebot.ModeHTML)
}

// Group events

func (bot *Bot) handleAddedToGroup(c telebot.Context) error {
	return c.Send(groupGreeting, bot.groupKeyboard())
}

func (bot *Bot) handleUserJoined(c telebot.Context) error {
	joined := c.Message().UsersJoined
	var names string
	for _, u := range joined {
		if u.IsBot {
			continue
		}
		if names != "" {
			names += ", "
		}
		names += u.FirstName
	}
	if names == "" {
		return nil
	}

	text := fmt.Sprintf(
		"👋 Добро пожаловать / Xoş gəlmisiniz, %s!\n\n"+
			"🏢 RU: Здесь вы можете управлять бронированием Meeting Room 2A\n"+
			"🏢 AZ: Burada Meeting Room 2A rezervasiyasını idarə edə bilərsiniz\n\n"+
			"📋 Используйте кнопки ниже / Aşağıdakı düymələrdən istifadə edin",
		names)
	return c.Send(text, bot.groupKeyboard())
}

func displayName(u *telebot.User) string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
