package odpn

import (
	"encoding/json"
	"strconv"
)

// Position places a row in the settlement form: NumerPola is the form
// section the expense belongs to, ID the negative temporary row id the
// portal expects for a new record.
type Position struct {
	NumerPola int
	ID        int
}

// Payload is the `data` object of a SubmitForm request.
type Payload map[string]any

// NewPayload merges the session ids, the position and the mapped fields.
// Id and NumerPola travel as decimal strings, the way the portal's own
// form sends them.
func NewPayload(s Session, pos Position, fields map[string]any) Payload {
	payload := Payload{
		"Id":           strconv.Itoa(pos.ID),
		"ID_szkid":     s.SzkID,
		"ID_rok":       s.Rok,
		"ID_miesiac":   s.Miesiac,
		"ID_rozdzial":  s.Rozdzial,
		"NumerPola":    strconv.Itoa(pos.NumerPola),
		"ID_Dokumentu": s.DokumentID,
		"ID_Wydruk":    s.WydrukID,
	}
	for name, value := range fields {
		payload[name] = value
	}
	return payload
}

// Raw is a convenience for building a session by hand from plain values.
func Raw(v any) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return out
}
