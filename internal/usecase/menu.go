package usecase

import (
	"context"

	"lead-intake-bot/internal/domain"
)

const (
	markSelected   = "✅"
	markUnselected = "❌"

	menuText = "Пожалуйста, уточните нужные пункты или введите текстовые поля:\n" +
		"(Нажмите «Завершить», когда всё заполнено.)"
	finishLabel = "Завершить"
)

type Button struct {
	Label string
	Data  string
}

type Menu struct {
	Text string
	Rows [][]Button
}

type toggleButton struct {
	option string
	label  string
}

type inputButton struct {
	field domain.FieldCode
	label string
}

// menuRow is one keyboard row: either toggles of a single field or free-text triggers.
type menuRow struct {
	field   domain.FieldCode
	toggles []toggleButton
	inputs  []inputButton
}

type menuSection struct {
	title string
	rows  []menuRow
}

var menuLayout = []menuSection{
	{
		title: "=== (1) Подготовка к контакту ===",
		rows: []menuRow{
			{field: domain.FieldSource, toggles: []toggleButton{{"tg", "Источник: Telegram"}, {"other", "Другой"}}},
			{field: domain.FieldMsgAvail, toggles: []toggleButton{{"tg", "Tg"}, {"wa", "WA"}, {"vb", "Viber"}}},
			{field: domain.FieldMsgAvail, toggles: []toggleButton{{"ln", "Line"}, {"none", "Нет"}}},
			{field: domain.FieldSegment, toggles: []toggleButton{{"buyer", "Сегментация: покупатель"}, {"investor", "инвестор"}}},
		},
	},
	{
		title: "=== (2) Первый контакт ===",
		rows: []menuRow{
			{field: domain.FieldIPCall, toggles: []toggleButton{{"yes", "Звонок IP: Да"}, {"no", "Нет"}}},
			{field: domain.FieldAltPhone, toggles: []toggleButton{{"yes", "Альтернативный номер: Да"}, {"no", "Нет"}}},
			{field: domain.FieldPersonalPhone, toggles: []toggleButton{{"yes", "Личный номер: Да"}, {"no", "Нет"}}},
			{field: domain.FieldMessengerCall, toggles: []toggleButton{{"yes", "Связаться через мессенджер: Да"}, {"no", "Нет"}}},
		},
	},
	{
		title: "=== (3) Продолжение ===",
		rows: []menuRow{
			{field: domain.FieldMeetPostpone, toggles: []toggleButton{{"earlier", "Перенос встречи: 'День раньше'"}, {"no", "Нет"}}},
			{field: domain.FieldProgress, toggles: []toggleButton{{"details", "Прогрев: детали"}, {"transfer", "Прогрев: перенос"}}},
			{field: domain.FieldInterest, toggles: []toggleButton{{"high", "Интерес: Высокий"}, {"med", "Средний"}, {"low", "Низкий"}}},
			{field: domain.FieldCRMResult, toggles: []toggleButton{{"success", "Результат: Успех"}, {"fail", "Неудача"}, {"repeat", "Повтор"}}},
			{field: domain.FieldTaskRepeat, toggles: []toggleButton{{"yes", "Задача на повтор: Да"}, {"no", "Нет"}}},
			{inputs: []inputButton{{domain.FieldMsgTouch, "Сообщение (ввести)"}}},
		},
	},
	{
		title: "=== (4) Общение с лидом ===",
		rows: []menuRow{
			{inputs: []inputButton{{domain.FieldNotes, "Заметки (доп. запись)"}}},
			{inputs: []inputButton{{domain.FieldBudget, "Бюджет (ввести)"}, {domain.FieldGoal, "Цель (ввести)"}}},
			{inputs: []inputButton{{domain.FieldPrefs, "Предпочтения (ввести)"}}},
		},
	},
	{
		title: "=== (5) Финализация ===",
		rows: []menuRow{
			{field: domain.FieldVideoCall, toggles: []toggleButton{{"yes", "Видеозвонок: Да"}, {"no", "Нет"}}},
			{field: domain.FieldSendMaterials, toggles: []toggleButton{{"yes", "Отправить материалы: Да"}, {"no", "Нет"}}},
		},
	},
}

// MenuRenderer builds the editing keyboard from the stored row. It keeps no
// state between renders.
type MenuRenderer struct {
	store domain.RecordStore
}

func NewMenuRenderer(store domain.RecordStore) *MenuRenderer {
	return &MenuRenderer{store: store}
}

func (r *MenuRenderer) Render(ctx context.Context, row int) (Menu, error) {
	values, err := r.store.ReadRow(ctx, row)
	if err != nil {
		return Menu{}, &domain.StoreError{Op: "read row", Row: row, Err: err}
	}
	return BuildMenu(row, values), nil
}

// BuildMenu is the pure part of Render.
func BuildMenu(row int, values []string) Menu {
	rows := make([][]Button, 0, 24)
	for _, sec := range menuLayout {
		rows = append(rows, []Button{{Label: sec.title, Data: NoopToken(row).String()}})
		for _, mr := range sec.rows {
			if len(mr.inputs) > 0 {
				btns := make([]Button, 0, len(mr.inputs))
				for _, in := range mr.inputs {
					btns = append(btns, Button{Label: in.label, Data: InputToken(in.field, row).String()})
				}
				rows = append(rows, btns)
				continue
			}
			field := domain.MustField(mr.field)
			selected, _ := SelectedOption(values, field)
			btns := make([]Button, 0, len(mr.toggles))
			for _, tb := range mr.toggles {
				mark := markUnselected
				if selected.Code == tb.option {
					mark = markSelected
				}
				btns = append(btns, Button{
					Label: tb.label + " " + mark,
					Data:  ToggleToken(field.Code, tb.option, row).String(),
				})
			}
			rows = append(rows, btns)
		}
	}
	rows = append(rows, []Button{{Label: finishLabel, Data: FinishToken(row).String()}})
	return Menu{Text: menuText, Rows: rows}
}

// SelectedOption derives the current selection of field from a stored row.
// This is the only place selection state is computed.
func SelectedOption(values []string, field domain.Field) (domain.Option, bool) {
	return field.Selected(cellAt(values, field.Column))
}

func cellAt(values []string, col int) string {
	if col < 1 || col > len(values) {
		return ""
	}
	return values[col-1]
}
