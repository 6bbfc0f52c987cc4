// Package notify posts booking announcements to a Telegram group chat.
// Delivery is best-effort: failures are logged and never surfaced to the
// booking path.
package notify

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/telebot.v3"

	"meeting-room-bot/model"
)

type Notifier struct {
	bot    *telebot.Bot
	chatID int64
}

// New builds a notifier for the given group chat. A zero chat id
// disables announcements entirely.
func New(bot *telebot.Bot, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// BookingCreated announces a fresh booking to the group, bilingual like
// the rest of the group-facing surface.
func (n *Notifier) BookingCreated(b *model.Booking) {
	if n.chatID == 0 {
		return
	}

	msg := fmt.Sprintf(
		"📢 <b>НОВАЯ БРОНЬ</b> / <b>YENİ REZERV</b>\n\n"+
			"👤 <b>Пользователь / Istifadəçi:</b> %s\n"+
			"📅 <b>Дата / Tarix:</b> %s\n"+
			"⏰ <b>Время / Saat:</b> %s - %s\n"+
			"📝 <b>Описание / Təsvir:</b> %s\n",
		b.OwnerName,
		b.StartTime.Format("02.01.2006"),
		b.StartTime.Format("15:04"),
		b.EndTime.Format("15:04"),
		b.Description,
	)

	_, err := n.bot.Send(&telebot.Chat{ID: n.chatID}, msg, telebot.ModeHTML)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", n.chatID).Msg("group notification failed")
		return
	}
	log.Info().Int64("booking_id", b.ID).Msg("group notified")
}
