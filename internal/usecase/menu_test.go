package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake-bot/internal/domain"
	"lead-intake-bot/internal/infra/memory"
)

func findButton(m Menu, data string) (Button, bool) {
	for _, row := range m.Rows {
		for _, b := range row {
			if b.Data == data {
				return b, true
			}
		}
	}
	return Button{}, false
}

func TestBuildMenuMarksStoredSelection(t *testing.T) {
	values := make([]string, domain.ColumnCount)
	values[domain.ColInterest-1] = "Высокий"
	values[domain.ColSource-1] = "telegram"
	values[domain.ColMsgAvail-1] = "нет"

	m := BuildMenu(5, values)

	tests := []struct {
		data, label string
	}{
		{"interest:high:5", "Интерес: Высокий ✅"},
		{"interest:med:5", "Средний ❌"},
		{"src:tg:5", "Источник: Telegram ✅"},
		{"src:other:5", "Другой ❌"},
		{"msg_avail:none:5", "Нет ✅"},
		{"msg_avail:tg:5", "Tg ❌"},
		{"seg:buyer:5", "Сегментация: покупатель ❌"},
	}
	for _, tt := range tests {
		b, ok := findButton(m, tt.data)
		require.True(t, ok, tt.data)
		assert.Equal(t, tt.label, b.Label, tt.data)
	}
}

func TestBuildMenuShape(t *testing.T) {
	m := BuildMenu(7, nil)
	assert.Equal(t, menuText, m.Text)

	var separators int
	for _, row := range m.Rows {
		for _, b := range row {
			tok, err := ParseToken(b.Data)
			require.NoError(t, err, b.Data)
			assert.Equal(t, 7, tok.Row)
			if tok.Kind == TokenNoop {
				separators++
				assert.True(t, strings.HasPrefix(b.Label, "==="), b.Label)
			}
			if tok.Kind == TokenToggle {
				assert.True(t, strings.HasSuffix(b.Label, markUnselected), "empty row selects nothing: %s", b.Label)
			}
		}
	}
	assert.Equal(t, 5, separators)

	last := m.Rows[len(m.Rows)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "finish:_:7", last[0].Data)
	assert.Equal(t, finishLabel, last[0].Label)
}

func TestMenuCoversEveryEnrichableField(t *testing.T) {
	m := BuildMenu(2, nil)
	for _, f := range domain.Fields() {
		if f.FreeText() {
			_, ok := findButton(m, InputToken(f.Code, 2).String())
			assert.True(t, ok, "input trigger for %s", f.Code)
			continue
		}
		for _, o := range f.Options {
			_, ok := findButton(m, ToggleToken(f.Code, o.Code, 2).String())
			assert.True(t, ok, "toggle %s:%s", f.Code, o.Code)
		}
	}
}

func TestMenuLayoutOptionsExist(t *testing.T) {
	for _, sec := range menuLayout {
		for _, row := range sec.rows {
			for _, tb := range row.toggles {
				f := domain.MustField(row.field)
				_, ok := f.Option(tb.option)
				assert.True(t, ok, "%s:%s", row.field, tb.option)
			}
			for _, in := range row.inputs {
				assert.True(t, domain.MustField(in.field).FreeText(), in.field)
			}
		}
	}
}

func TestRenderReadsStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	row, err := store.AppendRow(ctx, domain.Lead{Name: "Ana"}.Row())
	require.NoError(t, err)
	r := NewMenuRenderer(store)

	require.NoError(t, store.WriteCell(ctx, row, domain.ColVideoCall, "Да"))
	m, err := r.Render(ctx, row)
	require.NoError(t, err)
	b, _ := findButton(m, ToggleToken(domain.FieldVideoCall, "yes", row).String())
	assert.Equal(t, "Видеозвонок: Да ✅", b.Label)

	require.NoError(t, store.WriteCell(ctx, row, domain.ColVideoCall, ""))
	m, err = r.Render(ctx, row)
	require.NoError(t, err)
	b, _ = findButton(m, ToggleToken(domain.FieldVideoCall, "yes", row).String())
	assert.Equal(t, "Видеозвонок: Да ❌", b.Label)

	_, err = r.Render(ctx, 99)
	var serr *domain.StoreError
	require.True(t, errors.As(err, &serr))
	assert.ErrorIs(t, err, domain.ErrRowNotFound)
}
