package handler

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/fetcher"
	"github.com/artur/urban-waffle/internal/guard"
	"github.com/artur/urban-waffle/internal/notify"
	"github.com/artur/urban-waffle/internal/storage"
)

// DownloadHandler runs one link through guard check, fetch, delivery and
// outcome logging. Guard rejections answer the user but never reach the
// attempt log; fetch and delivery failures land there with their reason.
type DownloadHandler struct {
	store    *storage.Store
	guard    *guard.Guard
	tiktok   fetcher.Fetcher
	youtube  fetcher.Fetcher
	notifier *notify.Notifier
	timeout  time.Duration
}

func NewDownloadHandler(store *storage.Store, g *guard.Guard, tiktok, youtube fetcher.Fetcher, notifier *notify.Notifier, timeout time.Duration) *DownloadHandler {
	return &DownloadHandler{
		store:    store,
		guard:    g,
		tiktok:   tiktok,
		youtube:  youtube,
		notifier: notifier,
		timeout:  timeout,
	}
}

func (h *DownloadHandler) CanHandle(update tgbotapi.Update) bool {
	if update.Message == nil {
		return false
	}
	link, f := h.resolve(update.Message.Text)
	return f != nil && link != ""
}

func (h *DownloadHandler) Handle(api bot.API, update tgbotapi.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	decision, err := h.guard.Check(chatID, time.Now())
	if err != nil {
		log.Printf("[DOWNLOAD] Guard check failed for %d: %v", chatID, err)
		h.send(api, chatID, msgFail)
		return
	}

	switch decision.Verdict {
	case guard.TemporaryBan, guard.PermanentBan:
		h.send(api, chatID, msgBanned)
		return
	case guard.TooFast:
		h.send(api, chatID, msgWait)
		return
	}

	if err := h.Deliver(api, chatID, msg.From, msg.Text); err != nil {
		log.Printf("[DOWNLOAD] Delivery for %d failed: %v", chatID, err)
	}
}

// Deliver runs one fetch-and-deliver cycle for the first recognized link in
// text. It is also the entry point for operator retries, which skip the guard;
// from is nil in that case. Each call is an independent cycle with its own log
// entry.
func (h *DownloadHandler) Deliver(api bot.API, chatID int64, from *tgbotapi.User, text string) error {
	link, f := h.resolve(text)
	if f == nil {
		return fmt.Errorf("no recognized link in message")
	}

	user, err := h.store.GetOrCreateUser(chatID)
	if err != nil {
		h.send(api, chatID, msgFail)
		return fmt.Errorf("load user %d: %w", chatID, err)
	}

	kind := fetcher.KindVideo
	if user.Mode == storage.ModeAudio {
		kind = fetcher.KindAudio
	}

	loading, loadErr := api.Send(tgbotapi.NewMessage(chatID, msgLoading))

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	asset, err := f.Fetch(ctx, link, kind)
	if err != nil {
		return h.fail(api, chatID, from, link, kind, err)
	}
	defer asset.Cleanup()

	if loadErr == nil {
		// Best effort, the loading indicator may already be gone.
		api.Request(tgbotapi.NewDeleteMessage(chatID, loading.MessageID))
	}

	var payload tgbotapi.Chattable
	if kind == fetcher.KindAudio {
		audio := tgbotapi.NewAudio(chatID, assetFile(asset))
		audio.Title = asset.Title
		payload = audio
	} else {
		video := tgbotapi.NewVideo(chatID, assetFile(asset))
		video.Caption = msgSuccess
		payload = video
	}

	if _, err := api.Send(payload); err != nil {
		return h.fail(api, chatID, from, link, kind, fmt.Errorf("send asset: %w", err))
	}

	if err := h.store.RecordDownload(chatID, kind == fetcher.KindAudio); err != nil {
		log.Printf("[DOWNLOAD] Failed to record download for %d: %v", chatID, err)
	}
	h.appendLog(chatID, from, link, kind, storage.StatusSuccess, "")
	h.notifier.DownloadComplete(from, link, kind)
	return nil
}

// fail records the attempt and answers the user with the generic failure
// message. Downloads and mode are left untouched.
func (h *DownloadHandler) fail(api bot.API, chatID int64, from *tgbotapi.User, link string, kind fetcher.Kind, cause error) error {
	h.appendLog(chatID, from, link, kind, storage.StatusFailed, cause.Error())
	h.send(api, chatID, msgFail)
	return cause
}

func (h *DownloadHandler) appendLog(chatID int64, from *tgbotapi.User, link string, kind fetcher.Kind, status storage.Status, reason string) {
	entry := storage.LogEntry{
		Time:   time.Now(),
		Status: status,
		Type:   storage.Mode(kind),
		UserID: chatID,
		Link:   link,
		Error:  reason,
	}
	if from != nil {
		entry.UserID = from.ID
		entry.DisplayName = from.FirstName
		entry.Username = from.UserName
	}
	if err := h.store.AppendLog(entry); err != nil {
		log.Printf("[DOWNLOAD] Failed to append log entry: %v", err)
	}
}

func (h *DownloadHandler) resolve(text string) (string, fetcher.Fetcher) {
	if link := extractTikTokLink(text); link != "" {
		return link, h.tiktok
	}
	if id := extractYouTubeID(text); id != "" {
		return id, h.youtube
	}
	return "", nil
}

func (h *DownloadHandler) send(api bot.API, chatID int64, text string) {
	if _, err := api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("[DOWNLOAD] Failed to send message: %v", err)
	}
}

func assetFile(a *fetcher.Asset) tgbotapi.RequestFileData {
	if a.FilePath != "" {
		return tgbotapi.FilePath(a.FilePath)
	}
	return tgbotapi.FileURL(a.URL)
}
