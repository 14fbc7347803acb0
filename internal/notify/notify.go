// Package notify posts best-effort messages to the operator channel. A failed
// notification is logged and dropped; it never affects the request that
// triggered it.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/fetcher"
)

type Notifier struct {
	api       bot.API
	channelID int64
}

func New(api bot.API, channelID int64) *Notifier {
	return &Notifier{api: api, channelID: channelID}
}

// Startup announces that the bot came up.
func (n *Notifier) Startup() {
	n.dispatch("🤖 Bot started")
}

// DownloadComplete announces one successful delivery. from may be nil for
// operator-initiated retries.
func (n *Notifier) DownloadComplete(from *tgbotapi.User, link string, kind fetcher.Kind) {
	label := "HQ"
	if kind == fetcher.KindAudio {
		label = "MP3"
	}

	name, username, id := "operator retry", "NoUsername", int64(0)
	if from != nil {
		name = from.FirstName
		id = from.ID
		if from.UserName != "" {
			username = "@" + from.UserName
		}
	}

	n.dispatch(fmt.Sprintf("✅ New Download (%s)\nUser: %s (%s, ID: %d)\nLink: %s",
		label, name, username, id, link))
}

func (n *Notifier) dispatch(text string) {
	go func() {
		if _, err := n.api.Send(tgbotapi.NewMessage(n.channelID, text)); err != nil {
			log.Printf("[NOTIFY] Failed to notify operator channel: %v", err)
		}
	}()
}
