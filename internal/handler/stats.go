package handler

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/storage"
)

type StatsHandler struct {
	store *storage.Store
}

func NewStatsHandler(store *storage.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

func (h *StatsHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && update.Message.IsCommand() && update.Message.Command() == "stats"
}

func (h *StatsHandler) Handle(api bot.API, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	u, err := h.store.GetOrCreateUser(chatID)
	if err != nil {
		log.Printf("[STATS] Failed to load user %d: %v", chatID, err)
		return
	}

	if _, err := api.Send(tgbotapi.NewMessage(chatID, formatStats(u.Downloads, u.Warnings))); err != nil {
		log.Printf("[STATS] Failed to send message: %v", err)
	}
}
