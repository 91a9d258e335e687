package domain

// Lead is one customer contact attempt as parsed from intake text.
// Enrichable columns are not part of it: they start empty and are filled in
// through the editing menu directly in the store.
type Lead struct {
	Name      string
	Phone     string
	Telegram  string
	WhatsApp  string
	Email     string
	Messenger string
	Purpose   string
	Payment   string
	UTM       string
	Project   string
	Region    string
	Timezone  string
}

// PhoneCandidate is the number used for validation and inference:
// phone wins over WhatsApp.
func (l Lead) PhoneCandidate() string {
	if l.Phone != "" {
		return l.Phone
	}
	return l.WhatsApp
}

// Row lays the lead out over the full column set; unset columns are "".
func (l Lead) Row() []string {
	row := make([]string, ColumnCount)
	row[ColName-1] = l.Name
	row[ColPhone-1] = l.Phone
	row[ColTelegram-1] = l.Telegram
	row[ColWhatsApp-1] = l.WhatsApp
	row[ColEmail-1] = l.Email
	row[ColMessenger-1] = l.Messenger
	row[ColPurpose-1] = l.Purpose
	row[ColPayment-1] = l.Payment
	row[ColUTM-1] = l.UTM
	row[ColProject-1] = l.Project
	row[ColRegion-1] = l.Region
	row[ColTimezone-1] = l.Timezone
	return row
}
