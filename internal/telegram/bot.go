package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tanigpt/internal/conversation"
	"tanigpt/internal/responder"
	"tanigpt/internal/users"
)

const aboutText = "Welcome to *TaniGPT*, a sophisticated AI-powered chatbot crafted by *Tnix AI* for Telegram. " +
	"Engineered with advanced technology, TaniGPT delivers seamless, engaging conversations tailored to diverse user needs. " +
	"Communicating in English with a professional yet approachable tone, it leverages cutting-edge natural language processing " +
	"to ensure precise, meaningful dialogue. TaniGPT embodies Tnix AI's commitment to innovation, serving as a reliable digital " +
	"companion that enhances user interaction within Telegram's dynamic ecosystem."

type Bot struct {
	api       *tgbotapi.BotAPI
	out       sender
	store     users.Store
	sessions  *conversation.Sessions
	signup    *conversation.SignupFlow
	admin     *conversation.AdminFlow
	responder *responder.Responder
}

func New(botToken string, store users.Store, sessions *conversation.Sessions,
	signup *conversation.SignupFlow, admin *conversation.AdminFlow, resp *responder.Responder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:       api,
		out:       botAPISender{api: api},
		store:     store,
		sessions:  sessions,
		signup:    signup,
		admin:     admin,
		responder: resp,
	}, nil
}

// Start runs the bot in long-poll mode until the update channel closes.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	log.Printf("bot running in polling mode as @%s", b.api.Self.UserName)
	updates := b.api.GetUpdatesChan(u)
	b.consume(ctx, updates)
}

// StartWebhook registers the webhook (URL path = bot token, matching what
// BotFather-era deployments expect) and serves updates over HTTP.
func (b *Bot) StartWebhook(ctx context.Context, domain string, port int) error {
	wh, err := tgbotapi.NewWebhook(fmt.Sprintf("https://%s/%s", domain, b.api.Token))
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	updates := b.api.ListenForWebhook("/" + b.api.Token)
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Printf("bot running in webhook mode on port %d", port)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("webhook listener stopped: %v", err)
		}
	}()
	b.consume(ctx, updates)
	return nil
}

func (b *Bot) consume(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	externalID := strconv.FormatInt(msg.From.ID, 10)

	if msg.IsCommand() {
		b.handleCommand(msg, externalID)
		return
	}

	if sess := b.sessions.Get(externalID); sess != nil {
		b.sessions.Touch(externalID)
		if isAdminState(sess.State) {
			for _, r := range b.admin.Advance(externalID, sess, b.sessions, msg.Text) {
				b.send(msg.Chat.ID, r)
			}
		} else {
			b.send(msg.Chat.ID, b.signup.Advance(externalID, sess, b.sessions, msg.Text))
		}
		return
	}

	log.Printf("incoming message from %s: %q", externalID, msg.Text)
	b.sendTyping(msg.Chat.ID)
	b.send(msg.Chat.ID, conversation.Reply{Text: b.responder.Respond(ctx, externalID, msg.Text)})
}

func (b *Bot) handleCommand(msg *tgbotapi.Message, externalID string) {
	switch msg.Command() {
	case "start":
		log.Printf("received /start from %s", externalID)
		b.send(msg.Chat.ID, b.signup.Start(externalID, b.sessions))
	case "admin":
		log.Printf("received /admin from %s", externalID)
		b.send(msg.Chat.ID, b.admin.Start(externalID, b.sessions))
	case "about":
		out := tgbotapi.NewMessage(msg.Chat.ID, aboutText)
		out.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.out.Send(out); err != nil {
			log.Printf("failed to send about: %v", err)
		}
	case "clear":
		b.handleClear(msg, externalID)
	case "cancel":
		b.handleCancel(msg, externalID)
	}
}

func (b *Bot) handleClear(msg *tgbotapi.Message, externalID string) {
	userNumber, rec, err := b.store.Lookup(externalID)
	if errors.Is(err, users.ErrNotFound) {
		b.send(msg.Chat.ID, conversation.Reply{Text: fmt.Sprintf("Pehle signup karo, bro! %s Use /start.", conversation.Emoji("error", ""))})
		return
	}
	if err != nil {
		log.Printf("clear lookup failed for %s: %v", externalID, err)
		return
	}
	if err := b.store.ClearHistory(userNumber); err != nil {
		log.Printf("failed to clear history for %s: %v", externalID, err)
		return
	}
	b.send(msg.Chat.ID, conversation.Reply{Text: fmt.Sprintf("Hlo %s, tera history clear ho gaya! %s", rec.Name, conversation.Emoji("success", ""))})
}

func (b *Bot) handleCancel(msg *tgbotapi.Message, externalID string) {
	sess := b.sessions.Get(externalID)
	if sess == nil {
		return
	}
	if isAdminState(sess.State) {
		b.send(msg.Chat.ID, b.admin.Cancel(externalID, b.sessions))
		return
	}
	b.send(msg.Chat.ID, b.signup.Cancel(externalID, b.sessions))
}

func isAdminState(s conversation.State) bool {
	switch s {
	case conversation.StateAwaitingPassword, conversation.StateMenu,
		conversation.StateViewHistory, conversation.StateDeleteUser:
		return true
	}
	return false
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send typing action: %v", err)
	}
}

func (b *Bot) send(chatID int64, r conversation.Reply) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if len(r.Keyboard) > 0 {
		var rows [][]tgbotapi.KeyboardButton
		for _, row := range r.Keyboard {
			var buttons []tgbotapi.KeyboardButton
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		kb := tgbotapi.NewOneTimeReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		msg.ReplyMarkup = kb
	} else if r.RemoveKeyboard {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
