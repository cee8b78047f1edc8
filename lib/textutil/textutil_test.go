package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Bełchatów", expected: "belchatow"},
		{in: " Piotrków\tTryb. ", expected: "piotrkowtryb."},
		{in: "CZĘSTOCHOWA", expected: "czestochowa"},
		{in: "Łódź Żółć", expected: "lodzzolc"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.expected, NormalizeName(tc.in))
		})
	}
}
