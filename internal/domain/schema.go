package domain

import "strings"

// Колонки таблицы лидов, 1-based, порядок фиксирован.
const (
	ColName = iota + 1
	ColPhone
	ColTelegram
	ColWhatsApp
	ColEmail
	ColMessenger
	ColPurpose
	ColPayment
	ColUTM
	ColProject
	ColRegion
	ColNotes
	ColSource
	ColTimezone
	ColMsgAvail
	ColSegment
	ColTimezoneGMT
	ColIPCall
	ColAltPhone
	ColPersonalPhone
	ColMsgTouch
	ColMeetPostpone
	ColProgress
	ColInterest
	ColCRMResult
	ColTaskRepeat
	ColBudget
	ColGoal
	ColPrefs
	ColVideoCall
	ColSendMaterials
	ColMessengerCall

	ColumnCount = ColMessengerCall
)

// HeaderRow is the row index holding column names; data starts right below.
const HeaderRow = 1

var header = [ColumnCount]string{
	"Имя клиента",
	"Телефон",
	"Telegram",
	"WhatsApp",
	"Email",
	"Мессенджер",
	"Purpose",
	"Payment method",
	"UTM",
	"Project",
	"Region",
	"Заметки",
	"Источник лида",
	"Часовой пояс",
	"Доступность в мессенджерах",
	"Сегментация",
	"Часовой пояс (GMT)",
	"Звонок IP-телефонией",
	"Альтернативный номер",
	"Личный номер",
	"Сообщение в мессенджеры (Повторное касание)",
	"Перенос встречи",
	"Прогрев / прогресс",
	"Интерес",
	"Результат (CRM)",
	"Задача на повтор",
	"Бюджет",
	"Цель",
	"Предпочтения",
	"Видеозвонок / осмотр объекта",
	"Отправить материалы лиду",
	"Связаться через мессенджер",
}

// Header returns a copy of the column names in column order.
func Header() []string {
	out := make([]string, ColumnCount)
	copy(out, header[:])
	return out
}

// ColumnName returns the display name of a 1-based column, or "" when out of range.
func ColumnName(col int) string {
	if col < 1 || col > ColumnCount {
		return ""
	}
	return header[col-1]
}

type FieldCode string

const (
	FieldNotes         FieldCode = "notes"
	FieldSource        FieldCode = "src"
	FieldMsgAvail      FieldCode = "msg_avail"
	FieldSegment       FieldCode = "seg"
	FieldIPCall        FieldCode = "ip_call"
	FieldAltPhone      FieldCode = "alt_phone_yesno"
	FieldPersonalPhone FieldCode = "pers_phone_yesno"
	FieldMsgTouch      FieldCode = "msg_touch"
	FieldMeetPostpone  FieldCode = "meet_postpone"
	FieldProgress      FieldCode = "progress"
	FieldInterest      FieldCode = "interest"
	FieldCRMResult     FieldCode = "crm_result"
	FieldTaskRepeat    FieldCode = "task_repeat"
	FieldBudget        FieldCode = "budget"
	FieldGoal          FieldCode = "goal"
	FieldPrefs         FieldCode = "prefs"
	FieldVideoCall     FieldCode = "vid_call"
	FieldSendMaterials FieldCode = "send_mat"
	FieldMessengerCall FieldCode = "messenger_call"
)

// Option is one selectable value of an enrichable field. Value is the
// canonical display string written to the cell.
type Option struct {
	Code  string
	Value string
}

// Field describes an enrichable column. Options is nil for free-text fields.
type Field struct {
	Code    FieldCode
	Column  int
	Options []Option
	// Append: новые записи дописываются через "; " вместо перезаписи.
	Append bool
}

func (f Field) Name() string { return ColumnName(f.Column) }

func (f Field) FreeText() bool { return len(f.Options) == 0 }

// Option looks up an option by its short code.
func (f Field) Option(code string) (Option, bool) {
	for _, o := range f.Options {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// Selected returns the option whose canonical value matches cell.
func (f Field) Selected(cell string) (Option, bool) {
	for _, o := range f.Options {
		if Matches(cell, o.Value) {
			return o, true
		}
	}
	return Option{}, false
}

var (
	yesNo = []Option{{"yes", "Да"}, {"no", "Нет"}}

	fields = []Field{
		{Code: FieldNotes, Column: ColNotes, Append: true},
		{Code: FieldSource, Column: ColSource, Options: []Option{{"tg", "Telegram"}, {"other", "Другой"}}},
		{Code: FieldMsgAvail, Column: ColMsgAvail, Options: []Option{
			{"tg", "Telegram"}, {"wa", "WhatsApp"}, {"vb", "Viber"}, {"ln", "Line"}, {"none", "Нет"},
		}},
		{Code: FieldSegment, Column: ColSegment, Options: []Option{{"buyer", "покупатель"}, {"investor", "инвестор"}}},
		{Code: FieldIPCall, Column: ColIPCall, Options: yesNo},
		{Code: FieldAltPhone, Column: ColAltPhone, Options: yesNo},
		{Code: FieldPersonalPhone, Column: ColPersonalPhone, Options: yesNo},
		{Code: FieldMsgTouch, Column: ColMsgTouch},
		{Code: FieldMeetPostpone, Column: ColMeetPostpone, Options: []Option{
			{"earlier", "Да, контактировать на день раньше"}, {"no", "Нет"},
		}},
		{Code: FieldProgress, Column: ColProgress, Options: []Option{
			{"details", "Прогрев: согласие на детали"}, {"transfer", "Прогрев: перенос"},
		}},
		{Code: FieldInterest, Column: ColInterest, Options: []Option{{"high", "Высокий"}, {"med", "Средний"}, {"low", "Низкий"}}},
		{Code: FieldCRMResult, Column: ColCRMResult, Options: []Option{
			{"success", "Успех"}, {"fail", "Неудача"}, {"repeat", "Повтор касания"},
		}},
		{Code: FieldTaskRepeat, Column: ColTaskRepeat, Options: yesNo},
		{Code: FieldBudget, Column: ColBudget},
		{Code: FieldGoal, Column: ColGoal},
		{Code: FieldPrefs, Column: ColPrefs},
		{Code: FieldVideoCall, Column: ColVideoCall, Options: yesNo},
		{Code: FieldSendMaterials, Column: ColSendMaterials, Options: yesNo},
		{Code: FieldMessengerCall, Column: ColMessengerCall, Options: yesNo},
	}

	fieldsByCode = func() map[FieldCode]Field {
		m := make(map[FieldCode]Field, len(fields))
		for _, f := range fields {
			m[f.Code] = f
		}
		return m
	}()
)

// Fields returns all enrichable fields in registry order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ParseFieldCode resolves a raw code coming from outside (callback data).
func ParseFieldCode(raw string) (Field, bool) {
	f, ok := fieldsByCode[FieldCode(raw)]
	return f, ok
}

// MustField is for codes known at compile time.
func MustField(code FieldCode) Field {
	f, ok := fieldsByCode[code]
	if !ok {
		panic("domain: unknown field code " + string(code))
	}
	return f
}

// Matches reports whether a stored cell holds the canonical value.
// Сравнение без учёта регистра; пустая ячейка не совпадает ни с чем.
func Matches(cell, canonical string) bool {
	if cell == "" {
		return false
	}
	return strings.EqualFold(cell, canonical)
}
