package handler

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/storage"
)

// AudioHandler arms the one-shot audio mode: the next delivered link comes
// back as an audio track, after which the mode reverts to video.
type AudioHandler struct {
	store *storage.Store
}

func NewAudioHandler(store *storage.Store) *AudioHandler {
	return &AudioHandler{store: store}
}

func (h *AudioHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && update.Message.IsCommand() && update.Message.Command() == "audio"
}

func (h *AudioHandler) Handle(api bot.API, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	if _, err := h.store.GetOrCreateUser(chatID); err != nil {
		log.Printf("[AUDIO] Failed to create user %d: %v", chatID, err)
		return
	}
	if err := h.store.SetMode(chatID, storage.ModeAudio); err != nil {
		log.Printf("[AUDIO] Failed to set mode for %d: %v", chatID, err)
		return
	}

	if _, err := api.Send(tgbotapi.NewMessage(chatID, msgAudio)); err != nil {
		log.Printf("[AUDIO] Failed to send message: %v", err)
	}
}
