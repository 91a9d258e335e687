package usecase

import (
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"lead-intake-bot/internal/domain"
)

const (
	TimezoneOther = "Другой"
	RegionUnknown = "Unknown"

	utmHeader      = "UTM-данные:"
	utmNotProvided = "UTM-данные: (не указаны)"
	utmEmpty       = "UTM-данные: (пусто)"
)

// PrefixTable maps country calling code prefixes to labels.
type PrefixTable struct {
	labels   map[string]string
	prefixes []string
	fallback string
}

func NewPrefixTable(labels map[string]string, fallback string) *PrefixTable {
	t := &PrefixTable{labels: make(map[string]string, len(labels)), fallback: fallback}
	for p, l := range labels {
		t.labels[p] = l
		t.prefixes = append(t.prefixes, p)
	}
	// длинные префиксы первыми: "77" раньше "7"
	sort.Slice(t.prefixes, func(i, j int) bool {
		a, b := t.prefixes[i], t.prefixes[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return t
}

// Lookup returns the label of the longest prefix matching the digits after
// a leading "+". Numbers without "+" or without a match get the fallback.
func (t *PrefixTable) Lookup(phone string) string {
	digits, ok := strings.CutPrefix(strings.TrimSpace(phone), "+")
	if !ok {
		return t.fallback
	}
	for _, p := range t.prefixes {
		if strings.HasPrefix(digits, p) {
			return t.labels[p]
		}
	}
	return t.fallback
}

func (t *PrefixTable) Fallback() string { return t.fallback }

var (
	defaultTimezones = map[string]string{
		"1":   "GMT-5",
		"7":   "GMT+3",
		"34":  "GMT+1",
		"44":  "GMT+0",
		"49":  "GMT+1",
		"77":  "GMT+5",
		"375": "GMT+3",
		"380": "GMT+2",
		"971": "GMT+4",
	}
	defaultRegions = map[string]string{
		"1":   "USA",
		"7":   "Russia",
		"34":  "Spain",
		"44":  "United Kingdom",
		"49":  "Germany",
		"77":  "Kazakhstan",
		"375": "Belarus",
		"380": "Ukraine",
		"971": "UAE",
	}
)

// Inference derives timezone and region from the phone candidate. It runs
// once at intake; later edits never recompute these columns.
type Inference struct {
	Timezones *PrefixTable
	Regions   *PrefixTable
}

func NewInference() *Inference {
	return &Inference{
		Timezones: NewPrefixTable(defaultTimezones, TimezoneOther),
		Regions:   NewPrefixTable(defaultRegions, RegionUnknown),
	}
}

// Enrich fills Timezone, and Region when the lead did not state one.
func (in *Inference) Enrich(lead *domain.Lead) {
	phone := lead.PhoneCandidate()
	if phone == "" {
		return
	}
	lead.Timezone = in.Timezones.Lookup(phone)
	if strings.TrimSpace(lead.Region) == "" {
		lead.Region = in.Regions.Lookup(phone)
	}
}

// DecomposeUTM splits a UTM string on "|" and then "&" into display lines.
// "k=v" becomes "k = v"; only the first "=" splits.
func DecomposeUTM(raw string) []string {
	var lines []string
	for _, part := range strings.Split(raw, "|") {
		for _, chunk := range strings.Split(part, "&") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			if k, v, ok := strings.Cut(chunk, "="); ok {
				lines = append(lines, strings.TrimSpace(k)+" = "+strings.TrimSpace(v))
				continue
			}
			lines = append(lines, chunk)
		}
	}
	return lines
}

// FormatUTM renders the UTM breakdown for the intake summary.
func FormatUTM(raw string) string {
	if raw == "" {
		return utmNotProvided
	}
	lines := DecomposeUTM(raw)
	if len(lines) == 0 {
		return utmEmpty
	}
	return utmHeader + "\n" + strings.Join(lines, "\n")
}

// FormatPhone renders an international number as "+1 201-555-0123".
// Anything phonenumbers cannot parse is returned unchanged.
func FormatPhone(raw string) string {
	num, err := phonenumbers.Parse(raw, "ZZ")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
