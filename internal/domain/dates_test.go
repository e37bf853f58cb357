package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthYear(t *testing.T) {
	got, err := parseMonthYear(" 072023 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseMonthYear("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"132023", "002023", "07202", "AB2023", "07000000"} {
		got, err := parseMonthYear(bad)
		assert.Error(t, err, bad)
		assert.Nil(t, got, bad)
	}
}

func TestParseMMDDYYYY(t *testing.T) {
	got, err := parseMMDDYYYY("02292024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseMMDDYYYY("  ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"00012024", "01002024", "02312024", "0101202", "ab012024"} {
		got, err := parseMMDDYYYY(bad)
		assert.Error(t, err, bad)
		assert.Nil(t, got, bad)
	}
}

func TestParseCalendarDate(t *testing.T) {
	want := time.Date(2022, time.November, 3, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2022-11-03", "11/03/2022", "11/3/2022", "20221103", "11032022"} {
		got, err := parseCalendarDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, *got, in)
	}

	_, err := parseCalendarDate("yesterday")
	assert.Error(t, err)
}
