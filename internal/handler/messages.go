package handler

import "fmt"

const (
	msgWelcome = "👋 Welcome\n\n📥 Send a TikTok link\n🎵 /audio Download MP3"
	msgLoading = "⏬ Downloading..."
	msgSuccess = "✅ Download complete"
	msgFail    = "❌ Download failed"
	msgWait    = "⏳ Please wait before trying again"
	msgBanned  = "🚫 You are banned due to abuse"
	msgAudio   = "🎵 Send a TikTok link to download MP3"
)

func formatStats(downloads, warnings int) string {
	return fmt.Sprintf("📊 Your stats:\n⬇️ Downloads: %d\n⚠️ Warnings: %d", downloads, warnings)
}
