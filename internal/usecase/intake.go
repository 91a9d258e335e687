package usecase

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"lead-intake-bot/internal/domain"
)

// leadLabel maps intake labels onto Lead fields. A space inside a label
// matches any run of blanks, including none ("Paymentmethod").
type leadLabel struct {
	names  []string
	target func(*domain.Lead) *string
}

var leadLabels = []leadLabel{
	{[]string{"Имя клиента"}, func(l *domain.Lead) *string { return &l.Name }},
	{[]string{"Телефон"}, func(l *domain.Lead) *string { return &l.Phone }},
	{[]string{"Telegram"}, func(l *domain.Lead) *string { return &l.Telegram }},
	{[]string{"WhatsApp"}, func(l *domain.Lead) *string { return &l.WhatsApp }},
	{[]string{"Email"}, func(l *domain.Lead) *string { return &l.Email }},
	{[]string{"Мессенджер"}, func(l *domain.Lead) *string { return &l.Messenger }},
	{[]string{"Purpose"}, func(l *domain.Lead) *string { return &l.Purpose }},
	{[]string{"Payment method", "Pament method"}, func(l *domain.Lead) *string { return &l.Payment }},
	{[]string{"UTM"}, func(l *domain.Lead) *string { return &l.UTM }},
	{[]string{"Project"}, func(l *domain.Lead) *string { return &l.Project }},
	{[]string{"Region"}, func(l *domain.Lead) *string { return &l.Region }},
}

// ParseLead extracts known fields from free text in one pass over its lines.
// For every label the first line carrying "Label:" wins; a missing label or
// a label without a value yields "". It never fails.
func ParseLead(text string) domain.Lead {
	var lead domain.Lead
	found := make([]bool, len(leadLabels))
	for _, line := range strings.Split(text, "\n") {
		for i, lb := range leadLabels {
			if found[i] {
				continue
			}
			if v, ok := lb.extract(line); ok {
				*lb.target(&lead) = v
				found[i] = true
			}
		}
	}
	lead.Telegram = strings.TrimPrefix(lead.Telegram, "@")
	return lead
}

func (lb leadLabel) extract(line string) (string, bool) {
	for i := 0; i < len(line); {
		for _, name := range lb.names {
			if n, ok := matchLabel(line[i:], name); ok {
				return strings.TrimSpace(line[i+n:]), true
			}
		}
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return "", false
}

// matchLabel matches "label:" at the start of s, case-insensitively, and
// returns the number of bytes consumed including the colon.
func matchLabel(s, label string) (int, bool) {
	pos := 0
	for _, want := range label {
		if want == ' ' {
			for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
				pos++
			}
			continue
		}
		got, size := utf8.DecodeRuneInString(s[pos:])
		if size == 0 || unicode.ToLower(got) != unicode.ToLower(want) {
			return 0, false
		}
		pos += size
	}
	if pos >= len(s) || s[pos] != ':' {
		return 0, false
	}
	return pos + 1, true
}

var (
	phonePattern = regexp.MustCompile(`^\+?\d{6,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// leadInput is the shape the validator checks. Field order is the order in
// which failures are reported.
type leadInput struct {
	Name    string `validate:"required"`
	Contact string `validate:"required"`
	Phone   string `validate:"omitempty,leadphone"`
	Email   string `validate:"omitempty,leademail"`
}

var inputReasons = map[string]domain.ValidationReason{
	"Name":    domain.MissingRequiredField,
	"Contact": domain.NoContactChannel,
	"Phone":   domain.InvalidPhoneFormat,
	"Email":   domain.InvalidEmailFormat,
}

var inputColumns = map[string]string{
	"Name":  domain.ColumnName(domain.ColName),
	"Phone": domain.ColumnName(domain.ColPhone),
	"Email": domain.ColumnName(domain.ColEmail),
}

type LeadValidator struct {
	v *validator.Validate
}

func NewLeadValidator() *LeadValidator {
	v := validator.New()
	// регистрация может упасть только на пустом имени тега
	_ = v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &LeadValidator{v: v}
}

// Validate returns a *domain.ValidationError for the first failed rule.
func (lv *LeadValidator) Validate(lead domain.Lead) error {
	in := leadInput{
		Name:    strings.TrimSpace(lead.Name),
		Contact: strings.TrimSpace(lead.Phone + lead.WhatsApp + lead.Messenger),
		Phone:   lead.PhoneCandidate(),
		Email:   lead.Email,
	}
	err := lv.v.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if reason, ok := inputReasons[fe.Field()]; ok {
			return &domain.ValidationError{Reason: reason, Field: inputColumns[fe.Field()]}
		}
	}
	return err
}
