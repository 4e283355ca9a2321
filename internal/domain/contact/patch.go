package contact

import (
	"bytes"
	"encoding/json"
)

// FieldState distinguishes an omitted patch field from an explicit null.
type FieldState int

const (
	Unset FieldState = iota
	Present
	Null
)

// Field is one tri-state patch value. The zero value is Unset.
type Field[T any] struct {
	State FieldState
	Value T
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{State: Present, Value: v}
}

// Clear returns a Field that clears the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{State: Null}
}

// IsSet reports whether the field was supplied, as a value or as null.
func (f Field[T]) IsSet() bool {
	return f.State != Unset
}

// UnmarshalJSON maps JSON null to Null and any other value to Present.
// Omitted keys never reach here and stay Unset.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.State = Null
		f.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.State = Present
	return nil
}

// MarshalJSON writes null for Unset and Null fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.State != Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Patch is a partial update. Only supplied fields are applied.
type Patch struct {
	FirstName       Field[string] `json:"firstName"`
	LastName        Field[string] `json:"lastName"`
	Email           Field[string] `json:"email"`
	PhoneNumber     Field[string] `json:"phoneNumber"`
	Status          Field[string] `json:"status"`
	Comment         Field[string] `json:"comment"`
	ReminderDate    Field[string] `json:"dateRappel"`
	ReminderTime    Field[string] `json:"heureRappel"`
	AppointmentDate Field[string] `json:"dateRendezVous"`
	AppointmentTime Field[string] `json:"heureRendezVous"`
	CallDate        Field[string] `json:"dateAppel"`
	CallTime        Field[string] `json:"heureAppel"`
	CallDuration    Field[string] `json:"dureeAppel"`
	CallStartTime   Field[string] `json:"callStartTime"`
	Source          Field[string] `json:"source"`
	InCall          Field[bool]   `json:"isCurrentlyInCall"`
}

// IsEmpty reports whether no field was supplied.
func (p Patch) IsEmpty() bool {
	return !p.FirstName.IsSet() &&
		!p.LastName.IsSet() &&
		!p.Email.IsSet() &&
		!p.PhoneNumber.IsSet() &&
		!p.Status.IsSet() &&
		!p.Comment.IsSet() &&
		!p.ReminderDate.IsSet() &&
		!p.ReminderTime.IsSet() &&
		!p.AppointmentDate.IsSet() &&
		!p.AppointmentTime.IsSet() &&
		!p.CallDate.IsSet() &&
		!p.CallTime.IsSet() &&
		!p.CallDuration.IsSet() &&
		!p.CallStartTime.IsSet() &&
		!p.Source.IsSet() &&
		!p.InCall.IsSet()
}

// apply writes the patch onto c. Name fields cannot be nulled.
func (p Patch) apply(c *Contact) error {
	if err := applyRequired(p.FirstName, &c.FirstName); err != nil {
		return err
	}
	if err := applyRequired(p.LastName, &c.LastName); err != nil {
		return err
	}
	applyOptional(p.Email, &c.Email)
	applyOptional(p.PhoneNumber, &c.PhoneNumber)
	applyText(p.Status, &c.Status)
	applyText(p.Comment, &c.Comment)
	applyOptional(p.ReminderDate, &c.ReminderDate)
	applyOptional(p.ReminderTime, &c.ReminderTime)
	applyOptional(p.AppointmentDate, &c.AppointmentDate)
	applyOptional(p.AppointmentTime, &c.AppointmentTime)
	applyOptional(p.CallDate, &c.CallDate)
	applyOptional(p.CallTime, &c.CallTime)
	applyOptional(p.CallDuration, &c.CallDuration)
	applyOptional(p.CallStartTime, &c.CallStartTime)
	applyText(p.Source, &c.Source)
	switch p.InCall.State {
	case Present:
		c.InCall = p.InCall.Value
	case Null:
		c.InCall = false
	}
	return nil
}

func applyRequired(f Field[string], dst *string) error {
	switch f.State {
	case Present:
		if f.Value == "" {
			return ErrInvalidInput
		}
		*dst = f.Value
	case Null:
		return ErrInvalidInput
	}
	return nil
}

func applyOptional(f Field[string], dst **string) {
	switch f.State {
	case Present:
		v := f.Value
		*dst = &v
	case Null:
		*dst = nil
	}
}

func applyText(f Field[string], dst *string) {
	switch f.State {
	case Present:
		*dst = f.Value
	case Null:
		*dst = ""
	}
}
