package handler

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/storage"
)

type StartHandler struct {
	store *storage.Store
}

func NewStartHandler(store *storage.Store) *StartHandler {
	return &StartHandler{store: store}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && update.Message.IsCommand() && update.Message.Command() == "start"
}

func (h *StartHandler) Handle(api bot.API, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	if _, err := h.store.GetOrCreateUser(chatID); err != nil {
		log.Printf("[START] Failed to create user %d: %v", chatID, err)
	}

	if _, err := api.Send(tgbotapi.NewMessage(chatID, msgWelcome)); err != nil {
		log.Printf("[START] Failed to send message: %v", err)
	}
}
