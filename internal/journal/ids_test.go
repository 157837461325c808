package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryIDs(t *testing.T) {
	entry := FormatEntryID(2025, 9, 7)
	assert.Equal(t, "2025-09-007", entry)
	assert.Equal(t, "2025-09-007a", FormatLegID(entry, 0))
	assert.Equal(t, "2025-09-007b", FormatLegID(entry, 1))
	assert.Equal(t, "2025-12-123", FormatEntryID(2025, 12, 123))
}

func TestParseEntryID(t *testing.T) {
	for _, in := range []string{"2025-09-007", "2025-09-007a", "2025-09-007b"} {
		year, month, seq, err := ParseEntryID(in)
		require.NoError(t, err, in)
		assert.Equal(t, [3]int{2025, 9, 7}, [3]int{year, month, seq}, in)
	}
}

func TestParseEntryID_Errors(t *testing.T) {
	for _, in := range []string{"", "not-valid", "2025-01", "xxxx-01-001", "2025-xx-001"} {
		_, _, _, err := ParseEntryID(in)
		assert.Error(t, err, in)
	}
}
