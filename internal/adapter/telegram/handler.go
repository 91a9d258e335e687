package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lead-intake-bot/internal/usecase"
)

// botAPI is the part of *tgbotapi.BotAPI the handler needs.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Conversation is the transport-free bot logic.
type Conversation interface {
	Start(ctx context.Context, userID int64) []usecase.Reply
	Cancel(ctx context.Context, userID int64) []usecase.Reply
	Algorithm(ctx context.Context, userID int64) []usecase.Reply
	UnknownCommand(ctx context.Context, userID int64) []usecase.Reply
	Text(ctx context.Context, userID int64, msg string) []usecase.Reply
	Button(ctx context.Context, userID int64, data string) []usecase.Reply
}

type UpdateRecorder interface {
	RecordUpdate(kind string)
}

type Handler struct {
	bot      botAPI
	conv     Conversation
	recorder UpdateRecorder
	dispatch *Dispatcher
	logger   *slog.Logger
}

func NewHandler(bot botAPI, conv Conversation, recorder UpdateRecorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bot:      bot,
		conv:     conv,
		recorder: recorder,
		dispatch: NewDispatcher(logger),
		logger:   logger,
	}
}

// Run long-polls updates until ctx is done, then waits for in-flight updates.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	defer h.dispatch.Wait()
	defer h.bot.StopReceivingUpdates()

	// начатые обновления дорабатывают после остановки
	jobCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.enqueue(jobCtx, update)
		}
	}
}

func (h *Handler) enqueue(ctx context.Context, update tgbotapi.Update) {
	userID := senderOf(update)
	if userID == 0 {
		return
	}
	h.dispatch.Submit(userID, func() { h.HandleUpdate(ctx, update) })
}

// HandleUpdate processes one update synchronously.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	userID, chatID := m.From.ID, m.Chat.ID

	var replies []usecase.Reply
	if m.IsCommand() {
		h.record("command")
		h.logger.Info("command", "user_id", userID, "command", m.Command())
		switch m.Command() {
		case "start":
			replies = h.conv.Start(ctx, userID)
		case "cancel":
			replies = h.conv.Cancel(ctx, userID)
		case "algorithm":
			replies = h.conv.Algorithm(ctx, userID)
		default:
			replies = h.conv.UnknownCommand(ctx, userID)
		}
	} else {
		if m.Text == "" {
			return
		}
		h.record("text")
		replies = h.conv.Text(ctx, userID, m.Text)
	}
	h.sendReplies(chatID, replies)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil {
		return
	}
	h.record("callback")
	userID := cq.From.ID
	replies := h.conv.Button(ctx, userID, cq.Data)

	notice := ""
	if len(replies) > 0 {
		notice = replies[0].Notice
	}
	if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, notice)); err != nil {
		h.logger.Warn("callback answer failed", "user_id", userID, "error", err)
	}
	if len(replies) == 0 {
		return
	}
	if cq.Message == nil {
		h.sendReplies(userID, replies)
		return
	}

	chatID, msgID := cq.Message.Chat.ID, cq.Message.MessageID
	first := replies[0]
	var edit tgbotapi.Chattable
	if len(first.Keyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, first.Text, inlineKeyboard(first.Keyboard))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, msgID, first.Text)
	}
	if _, err := h.bot.Request(edit); err != nil {
		// например "message is not modified" при повторном рендере
		h.logger.Warn("edit message failed", "user_id", userID, "chat_id", chatID, "error", err)
	}
	h.sendReplies(chatID, replies[1:])
}

func (h *Handler) sendReplies(chatID int64, replies []usecase.Reply) {
	for _, r := range replies {
		msg := tgbotapi.NewMessage(chatID, r.Text)
		if len(r.Keyboard) > 0 {
			msg.ReplyMarkup = inlineKeyboard(r.Keyboard)
		}
		if _, err := h.bot.Send(msg); err != nil {
			h.logger.Error("send message failed", "chat_id", chatID, "error", err)
		}
	}
}

func (h *Handler) record(kind string) {
	if h.recorder != nil {
		h.recorder.RecordUpdate(kind)
	}
}

func senderOf(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

func inlineKeyboard(rows [][]usecase.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, btns)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: out}
}
