package bot

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"IzdatBot/bot/flow"
	"IzdatBot/internal/config"
	"IzdatBot/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// TgBot feeds Telegram updates into the flow engine and renders its answers
// back into chat messages.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
	engine      *flow.Engine
}

func NewTgBot(conf *config.Config, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		botUsername: conf.Telegram.BotName,
		adminId:     conf.Telegram.AdminId,
	}

	api, err := tgbotapi.NewBot(conf.Telegram.ApiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetEngine attaches the flow engine. Must be called before Start.
func (t *TgBot) SetEngine(engine *flow.Engine) {
	t.engine = engine
}

// Start begins polling for updates and handling them. Blocks until stopped.
func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Println("an error occurred while handling update:", err.Error())
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, t.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, t.handleMessage))

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("bot started", slog.String("username", t.botUsername))

	// Idle, to keep updates coming in
	updater.Idle()

	return nil
}

// handleMessage feeds any text, commands included, through the engine.
func (t *TgBot) handleMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.engine == nil {
		t.log.Warn("flow engine not initialized")
		return nil
	}

	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)
	chatID := ctx.EffectiveChat.Id

	render := t.engine.Handle(context.Background(), userID, flow.NewTextEvent(ctx.EffectiveMessage.Text))
	t.respond(chatID, render)
	return nil
}

// handleCallback answers the callback query and dispatches its payload.
func (t *TgBot) handleCallback(bot *tgbotapi.Bot, ctx *ext.Context) error {
	if t.engine == nil {
		return nil
	}

	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)
	chatID := ctx.EffectiveChat.Id

	if _, err := ctx.CallbackQuery.Answer(bot, nil); err != nil {
		t.log.Warn("answering callback query", sl.Err(err))
	}

	render := t.engine.Handle(context.Background(), userID, flow.NewCallbackEvent(ctx.CallbackQuery.Data))
	t.respond(chatID, render)
	return nil
}

// SendMessage notifies the admin chat.
func (t *TgBot) SendMessage(msg string) {
	t.respond(t.adminId, flow.Render(msg))
}

func (t *TgBot) respond(chatId int64, render flow.RenderInstruction) {
	if render.IsZero() {
		t.log.Debug("empty rendering", slog.Int64("id", chatId))
		return
	}

	var markup tgbotapi.ReplyMarkup
	if len(render.Buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(render.Buttons))
		for _, row := range render.Buttons {
			line := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				line = append(line, tgbotapi.InlineKeyboardButton{
					Text:         btn.Text,
					CallbackData: btn.Data,
				})
			}
			rows = append(rows, line)
		}
		markup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	sanitized := sanitize(render.Text, false)
	if sanitized == "" {
		t.log.Debug("empty message", slog.Int64("id", chatId))
		return
	}

	_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
		ParseMode:   "MarkdownV2",
		ReplyMarkup: markup,
	})
	if err != nil {
		t.log.With(
			slog.Int64("id", chatId),
		).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, render.Text, &tgbotapi.SendMessageOpts{
			ReplyMarkup: markup,
		})
		if err != nil {
			t.log.With(
				slog.Int64("id", chatId),
			).Error("sending safe message", sl.Err(err))
		}
	}
}

func sanitize(input string, preserveLinks bool) string {
	// Reserved MarkdownV2 characters that need escaping
	reservedChars := "\\`_{}#+-.!|()[]"
	if preserveLinks {
		reservedChars = "\\`_{}#+-.!|"
	}

	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}

	return sanitized
}
