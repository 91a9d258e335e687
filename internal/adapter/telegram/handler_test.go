package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/infra/memory"
	"lead-intake-bot/internal/usecase"
)

const (
	operatorID = int64(1)
	strangerID = int64(2)
)

type fakeBot struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failEdit bool
}

func newFakeBot() *fakeBot { return &fakeBot{updates: make(chan tgbotapi.Update, 16)} }

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return b.updates }

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && b.failEdit {
		return nil, errors.New("Bad Request: message is not modified")
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *fakeBot) edits() []tgbotapi.EditMessageTextConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range b.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (b *fakeBot) callbacks() []tgbotapi.CallbackConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range b.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

type kindCounter struct {
	mu    sync.Mutex
	kinds map[string]int
}

func (k *kindCounter) RecordUpdate(kind string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kinds[kind]++
}

type fixture struct {
	bot      *fakeBot
	handler  *Handler
	store    *memory.RecordStore
	recorder *kindCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewRecordStore()
	require.NoError(t, store.EnsureHeader(context.Background(), domain.Header()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	editor := usecase.NewEditor(store, memory.NewSessionStore(), usecase.AllowList{operatorID: {}}, nil, logger)
	bot := newFakeBot()
	rec := &kindCounter{kinds: map[string]int{}}
	return &fixture{bot: bot, handler: NewHandler(bot, editor, rec, logger), store: store, recorder: rec}
}

func textMessage(userID int64, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: m}
}

func buttonPress(userID int64, msgID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: msgID,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}}
}

func TestCommandsReplyWithText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textMessage(operatorID, "/start"))
	f.handler.HandleUpdate(ctx, textMessage(operatorID, "/algorithm"))
	f.handler.HandleUpdate(ctx, textMessage(operatorID, "/nope"))

	msgs := f.bot.messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Text, "Имя клиента: Иван Иванов")
	assert.Equal(t, usecase.AlgorithmText, msgs[1].Text)
	assert.Contains(t, msgs[2].Text, "Неизвестная команда")
	assert.Equal(t, operatorID, msgs[0].ChatID)
	assert.Equal(t, 3, f.recorder.kinds["command"])
}

func TestLeadTextSendsSummaryAndMenu(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleUpdate(context.Background(), textMessage(operatorID, "Имя клиента: Ana\nТелефон: +34600111222"))

	msgs := f.bot.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Определён регион: Spain")
	assert.Nil(t, msgs[0].ReplyMarkup)
	kb, ok := msgs[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "noop:_:2", *kb.InlineKeyboard[0][0].CallbackData)
	last := kb.InlineKeyboard[len(kb.InlineKeyboard)-1][0]
	assert.Equal(t, "Завершить", last.Text)
	assert.Equal(t, "finish:_:2", *last.CallbackData)
	assert.Equal(t, 1, f.store.DataRows())
}

func TestToggleAnswersCallbackAndEditsMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.handler.HandleUpdate(ctx, textMessage(operatorID, "Имя клиента: Ana\nТелефон: +34600111222"))

	f.handler.HandleUpdate(ctx, buttonPress(operatorID, 2, "interest:high:2"))

	cbs := f.bot.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "Интерес → Высокий", cbs[0].Text)

	edits := f.bot.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 2, edits[0].MessageID)
	require.NotNil(t, edits[0].ReplyMarkup)
	found := false
	for _, row := range edits[0].ReplyMarkup.InlineKeyboard {
		for _, b := range row {
			if *b.CallbackData == "interest:high:2" {
				found = true
				assert.Contains(t, b.Text, "✅")
			}
		}
	}
	assert.True(t, found)

	v, err := f.store.ReadCell(ctx, 2, domain.ColInterest)
	require.NoError(t, err)
	assert.Equal(t, "Высокий", v)
	assert.Len(t, f.bot.messages(), 2, "no extra messages for a toggle")
}

func TestInputButtonThenTextWritesField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.handler.HandleUpdate(ctx, textMessage(operatorID, "Имя клиента: Ana\nТелефон: +34600111222"))

	f.handler.HandleUpdate(ctx, buttonPress(operatorID, 2, "input:budget:2"))
	edits := f.bot.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "Напишите, пожалуйста, Бюджет:", edits[0].Text)
	assert.Nil(t, edits[0].ReplyMarkup)

	f.handler.HandleUpdate(ctx, textMessage(operatorID, "300k"))
	msgs := f.bot.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "Отлично, поле «Бюджет» теперь: «300k».", msgs[2].Text)
	assert.NotNil(t, msgs[3].ReplyMarkup)

	v, err := f.store.ReadCell(ctx, 2, domain.ColBudget)
	require.NoError(t, err)
	assert.Equal(t, "300k", v)
}

func TestEditFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.handler.HandleUpdate(ctx, textMessage(operatorID, "Имя клиента: Ana\nТелефон: +34600111222"))
	f.bot.failEdit = true

	assert.NotPanics(t, func() { f.handler.HandleUpdate(ctx, buttonPress(operatorID, 2, "noop:_:2")) })
	assert.Len(t, f.bot.callbacks(), 1)
}

func TestStrangerIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textMessage(strangerID, "Имя клиента: Ana\nТелефон: +34600111222"))
	f.handler.HandleUpdate(ctx, buttonPress(strangerID, 5, "interest:high:2"))

	msgs := f.bot.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "нет прав")
	edits := f.bot.edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "нет прав")
	assert.Equal(t, 0, f.store.DataRows())
}

func TestNonTextMessagesAreIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: operatorID},
		Chat: &tgbotapi.Chat{ID: operatorID},
	}})
	f.handler.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 3}, Text: "channel post"}})

	assert.Empty(t, f.bot.messages())
}

func TestRunProcessesUpdatesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.handler.Run(ctx)
		close(done)
	}()

	f.bot.updates <- textMessage(operatorID, "/start")
	f.bot.updates <- textMessage(operatorID, "/algorithm")
	require.Eventually(t, func() bool { return len(f.bot.messages()) == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	msgs := f.bot.messages()
	assert.Contains(t, msgs[0].Text, "Привет!")
	assert.Equal(t, usecase.AlgorithmText, msgs[1].Text)
}
