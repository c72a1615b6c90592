package internal

// Record is one parsed transaction-like entry from a statement file.
// Extractors surface arbitrary column sets; there is no fixed schema.
type Record map[string]string

// Merchant returns the merchant-like field, or "" when absent.
func (r Record) Merchant() string {
	for _, key := range []string{"merchant", "Merchant", "description", "Description", "payee", "Payee"} {
		if v, ok := r[key]; ok {
			return v
		}
	}
	return ""
}

// Amount returns the amount-like field, or "" when absent.
func (r Record) Amount() string {
	for _, key := range []string{"amount", "Amount", "total", "Total"} {
		if v, ok := r[key]; ok {
			return v
		}
	}
	return ""
}

// Attachment is a filename plus raw content. Identity for upload
// deduplication is the content hash, never the filename.
type Attachment struct {
	Filename string
	Content  []byte
}

// EmailRecord is one normalized financial-looking email. Hash is derived
// from the raw message bytes and is the sole identity key across the
// pipeline: two emails with the same hash are the same email.
type EmailRecord struct {
	Hash        string
	Provider    string
	MessageID   string
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
	Date        string
	Attachments []Attachment
}

// FetchedMailMessage is a raw message as delivered by a mail connector,
// before MIME parsing and financial filtering.
type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// EmailRow is the local index entry for a stored raw message.
type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

// SheetRow is a flat mapping persisted to a remote document. Link columns
// are populated after upload and must not affect row identity.
type SheetRow map[string]string

// LinkColumns are the derived columns excluded from the row identity hash.
var LinkColumns = []string{"attach_path", "email_link"}
