package bot

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the slice of the Telegram client the handlers actually use.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(api API, update tgbotapi.Update)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers []Handler
}

func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("[BOT] Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:      api,
		handlers: make([]Handler, 0),
	}, nil
}

// Client exposes the underlying API for collaborators wired outside the
// update loop (notifier, operator retry).
func (b *Bot) Client() API {
	return b.api
}

func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	log.Printf("[BOT] Registered handler: %T", h)
}

func (b *Bot) Run() {
	log.Printf("[BOT] Starting bot with %d handlers", len(b.handlers))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		go b.dispatch(b.api, update)
	}
}

// dispatch routes one update to the first handler that claims it. Updates
// without a message (edits, channel posts, member events) are skipped.
func (b *Bot) dispatch(api API, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	// From is absent for messages originating from channels.
	if from := update.Message.From; from != nil {
		log.Printf("[BOT] Message from %s (@%s): %s", from.FirstName, from.UserName, update.Message.Text)
	} else {
		log.Printf("[BOT] Message without sender: %s", update.Message.Text)
	}

	for _, handler := range b.handlers {
		if handler.CanHandle(update) {
			log.Printf("[BOT] Handling with: %T", handler)
			handler.Handle(api, update)
			return
		}
	}

	log.Printf("[BOT] No handler found for update")
}
