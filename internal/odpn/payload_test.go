package odpn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPayload(t *testing.T) {
	s := Session{
		SzkID:      Raw(1204),
		Rok:        Raw(2024),
		Miesiac:    Raw(9),
		Rozdzial:   Raw("80120"),
		DokumentID: Raw(90112),
		WydrukID:   Raw(48213),
	}
	payload := NewPayload(s, Position{NumerPola: 17001, ID: -2}, map[string]any{
		"_5":  "FV 12/2024",
		"_65": 1234.5,
	})

	encoded, err := json.Marshal(map[string]any{"data": payload})
	require.NoError(t, err)
	require.JSONEq(t, `{"data": {
		"Id": "-2",
		"ID_szkid": 1204,
		"ID_rok": 2024,
		"ID_miesiac": 9,
		"ID_rozdzial": "80120",
		"NumerPola": "17001",
		"ID_Dokumentu": 90112,
		"ID_Wydruk": 48213,
		"_5": "FV 12/2024",
		"_65": 1234.5
	}}`, string(encoded))
}
