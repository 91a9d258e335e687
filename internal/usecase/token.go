package usecase

import (
	"strconv"
	"strings"

	"lead-intake-bot/internal/domain"
)

type TokenKind string

const (
	TokenToggle TokenKind = "toggle"
	TokenInput  TokenKind = "input"
	TokenFinish TokenKind = "finish"
	TokenNoop   TokenKind = "noop"
)

const (
	tokenSep   = ":"
	tokenBlank = "_"
)

// CallbackToken is button payload "field:option:row". The first part is
// either a field code or one of input/finish/noop.
type CallbackToken struct {
	Kind   TokenKind
	Field  string
	Option string
	Row    int
}

func ToggleToken(field domain.FieldCode, option string, row int) CallbackToken {
	return CallbackToken{Kind: TokenToggle, Field: string(field), Option: option, Row: row}
}

func InputToken(field domain.FieldCode, row int) CallbackToken {
	return CallbackToken{Kind: TokenInput, Field: string(field), Row: row}
}

func FinishToken(row int) CallbackToken { return CallbackToken{Kind: TokenFinish, Row: row} }

func NoopToken(row int) CallbackToken { return CallbackToken{Kind: TokenNoop, Row: row} }

func (t CallbackToken) String() string {
	row := strconv.Itoa(t.Row)
	switch t.Kind {
	case TokenInput:
		return string(TokenInput) + tokenSep + t.Field + tokenSep + row
	case TokenFinish, TokenNoop:
		return string(t.Kind) + tokenSep + tokenBlank + tokenSep + row
	default:
		return t.Field + tokenSep + t.Option + tokenSep + row
	}
}

// ParseToken decodes button data. Field codes are not resolved here; the
// editor checks them against the registry.
func ParseToken(data string) (CallbackToken, error) {
	parts := strings.Split(data, tokenSep)
	if len(parts) != 3 {
		return CallbackToken{}, &domain.ProtocolError{Data: data, Detail: "expected field:option:row"}
	}
	row, err := strconv.Atoi(parts[2])
	if err != nil || row <= domain.HeaderRow {
		return CallbackToken{}, &domain.ProtocolError{Data: data, Detail: "bad row index"}
	}
	head, arg := parts[0], parts[1]
	switch TokenKind(head) {
	case TokenNoop, TokenFinish:
		return CallbackToken{Kind: TokenKind(head), Row: row}, nil
	case TokenInput:
		if arg == "" {
			return CallbackToken{}, &domain.ProtocolError{Data: data, Detail: "missing field"}
		}
		return CallbackToken{Kind: TokenInput, Field: arg, Row: row}, nil
	}
	if head == "" || arg == "" {
		return CallbackToken{}, &domain.ProtocolError{Data: data, Detail: "missing field or option"}
	}
	return CallbackToken{Kind: TokenToggle, Field: head, Option: arg, Row: row}, nil
}
