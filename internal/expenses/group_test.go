package expenses

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func belchatowRow(number int, category, month string) Row {
	return Row{
		Number: number,
		Cells:  []string{category, "", "2024-01-01", "FV", "2024-01-02", "10", "", "", "", month},
	}
}

func TestGroupMonthly(t *testing.T) {
	rows := []Row{
		belchatowRow(1, "1.", "9/2024"),
		{Number: 2, Cells: []string{"1.", "too short"}},
		belchatowRow(3, "2.", "10/2024"),
		belchatowRow(4, "3.", "09/2024"),
		belchatowRow(5, "4.", "x/2024"),
	}

	groups, rejected := Group(Belchatow{}, rows)
	require.Len(t, groups, 2)

	require.Equal(t, Month(9), groups[0].Month)
	require.Len(t, groups[0].Entries, 2)
	require.Equal(t, 1, groups[0].Entries[0].Row.Number)
	require.Equal(t, 4, groups[0].Entries[1].Row.Number)
	require.Equal(t, "3.", groups[0].Entries[1].Category)

	require.Equal(t, Month(10), groups[1].Month)
	require.Len(t, groups[1].Entries, 1)

	require.Len(t, rejected, 2)
	require.Equal(t, 2, rejected[0].Row)
	require.ErrorIs(t, rejected[0], ErrShortRow)
	require.Equal(t, 5, rejected[1].Row)
	require.ErrorIs(t, rejected[1], ErrBadMonth)
}

func TestGroupNotMonthly(t *testing.T) {
	rows := []Row{
		{Number: 1, Cells: []string{"1", "1.", "a", "1", "d", "s", "d", "1", "0"}},
		{Number: 2, Cells: []string{"2", "2."}},
		{Number: 3, Cells: []string{"3", "3.1.", "a", "1", "d", "s", "d", "1", "0"}},
	}

	groups, rejected := Group(Czestochowa{}, rows)
	require.Len(t, groups, 1)
	require.Equal(t, Month(0), groups[0].Month)
	require.Len(t, groups[0].Entries, 2)
	require.Len(t, rejected, 1)
	require.Equal(t, 2, rejected[0].Row)
}
