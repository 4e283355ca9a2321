package contact

// Status values used by the operator UI. Status is stored as free text; these
// are the well-known ones.
const (
	StatusUndefined     = "Non défini"
	StatusWrongNumber   = "Mauvais num"
	StatusVoicemail     = "Répondeur"
	StatusCallBack      = "À rappeler"
	StatusNotInterested = "Pas intéressé"
	StatusPitched       = "Argumenté"
	StatusDO            = "DO"
	StatusRO            = "RO"
	StatusBlacklisted   = "Liste noire"
	StatusPremature     = "Prématuré"
)

// KnownStatuses lists the well-known status values in display order.
var KnownStatuses = []string{
	StatusUndefined,
	StatusCallBack,
	StatusVoicemail,
	StatusWrongNumber,
	StatusNotInterested,
	StatusPitched,
	StatusDO,
	StatusRO,
	StatusPremature,
	StatusBlacklisted,
}

// DurationNotApplicable is recorded when a call ends without a known start time.
const DurationNotApplicable = "N/A"

// Contact is one row of the contact table. Optional fields are nil when absent.
type Contact struct {
	ID              string  `json:"id"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Status          string  `json:"status"`
	Comment         string  `json:"comment"`
	ReminderDate    *string `json:"dateRappel"`
	ReminderTime    *string `json:"heureRappel"`
	AppointmentDate *string `json:"dateRendezVous"`
	AppointmentTime *string `json:"heureRendezVous"`
	CallDate        *string `json:"dateAppel"`
	CallTime        *string `json:"heureAppel"`
	CallDuration    *string `json:"dureeAppel"`
	CallStartTime   *string `json:"callStartTime"`
	Source          string  `json:"source"`
	InCall          bool    `json:"isCurrentlyInCall"`
}

// Clone returns a deep copy so cached rows cannot be mutated through results.
func (c Contact) Clone() Contact {
	out := c
	out.Email = cloneString(c.Email)
	out.PhoneNumber = cloneString(c.PhoneNumber)
	out.ReminderDate = cloneString(c.ReminderDate)
	out.ReminderTime = cloneString(c.ReminderTime)
	out.AppointmentDate = cloneString(c.AppointmentDate)
	out.AppointmentTime = cloneString(c.AppointmentTime)
	out.CallDate = cloneString(c.CallDate)
	out.CallTime = cloneString(c.CallTime)
	out.CallDuration = cloneString(c.CallDuration)
	out.CallStartTime = cloneString(c.CallStartTime)
	return out
}

// DedupKey identifies a contact for bulk import merging.
type DedupKey struct {
	FirstName string
	LastName  string
	Email     string
}

// Key returns the import dedup key of c.
func (c Contact) Key() DedupKey {
	return DedupKey{FirstName: c.FirstName, LastName: c.LastName, Email: stringValue(c.Email)}
}

// CreateRequest describes a contact creation or one imported row.
type CreateRequest struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           *string `json:"email,omitempty"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	Status          string  `json:"status,omitempty"`
	Comment         string  `json:"comment,omitempty"`
	ReminderDate    *string `json:"dateRappel,omitempty"`
	ReminderTime    *string `json:"heureRappel,omitempty"`
	AppointmentDate *string `json:"dateRendezVous,omitempty"`
	AppointmentTime *string `json:"heureRendezVous,omitempty"`
	Source          string  `json:"source,omitempty"`
}

// SearchOptions filters a contact listing.
type SearchOptions struct {
	Query  string
	Status string
	Limit  int
	Offset int
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
