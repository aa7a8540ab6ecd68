package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/joho/godotenv"

	"tanigpt/internal/config"
	"tanigpt/internal/conversation"
	"tanigpt/internal/llm"
	"tanigpt/internal/responder"
	"tanigpt/internal/scheduler"
	"tanigpt/internal/storage"
	"tanigpt/internal/telegram"
	"tanigpt/internal/users"
	"tanigpt/internal/webpanel"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	store, err := users.NewFileStore(cfg.DataDir, cfg.UserIndexFile)
	if err != nil {
		log.Fatalf("failed to init user store: %v", err)
	}

	llmClient, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider))
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init interaction recorder: %v", err)
		} else {
			rec = fr
		}
	}

	sessions := conversation.NewSessions()
	adminID := strconv.FormatInt(cfg.AdminUserID, 10)
	signup := conversation.NewSignupFlow(store)
	admin := conversation.NewAdminFlow(store, adminID, cfg.AdminPassword)
	resp := responder.New(store, llmClient, rec)

	sweep := scheduler.New(sessions, cfg.SessionTTL)
	if err := sweep.Start(); err != nil {
		log.Printf("failed to start session sweeper: %v", err)
	}
	defer sweep.Stop()

	if cfg.PanelPort > 0 {
		panel := webpanel.New(store, rec, cfg.PanelPassword, cfg.PanelPort)
		go func() {
			if err := panel.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("admin panel stopped: %v", err)
			}
		}()
		defer func() {
			if err := panel.Stop(); err != nil {
				log.Printf("failed to stop admin panel: %v", err)
			}
		}()
	}

	bot, err := telegram.New(cfg.TelegramBotToken, store, sessions, signup, admin, resp)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx := context.Background()
	if cfg.UseWebhook {
		if cfg.WebhookDomain == "" {
			log.Fatalf("USE_WEBHOOK is set but WEBHOOK_DOMAIN is empty")
		}
		if err := bot.StartWebhook(ctx, cfg.WebhookDomain, cfg.WebhookPort); err != nil {
			log.Fatalf("failed to start webhook: %v", err)
		}
		return
	}
	bot.Start(ctx)
}
