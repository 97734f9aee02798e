package tabular

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "12,345", FormatInt(12345))
	assert.Equal(t, "0", FormatInt(0))

	n, err := ParseInt("12,345")
	require.NoError(t, err)
	assert.Equal(t, 12345, n)

	n, err = ParseInt("2019.0")
	require.NoError(t, err)
	assert.Equal(t, 2019, n)

	n, err = ParseInt(Placeholder)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ParseInt("12.5")
	assert.Error(t, err)
}

func TestDatesAreLossy(t *testing.T) {
	at := time.Date(2024, 3, 9, 17, 45, 12, 0, time.UTC)
	assert.Equal(t, "09 Mar 2024", FormatDate(&at))

	back, err := ParseDate(FormatDate(&at))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), *back)

	assert.Equal(t, Placeholder, FormatDate(nil))
	back, err = ParseDate(Placeholder)
	require.NoError(t, err)
	assert.Nil(t, back)
}

func TestParseDateAcceptsMachineForms(t *testing.T) {
	for _, in := range []string{"2024-03-09", "2024-03-09T10:00:00Z", "45360"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2024, got.Year(), in)
		assert.Equal(t, time.March, got.Month(), in)
	}
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestBool(t *testing.T) {
	assert.Equal(t, "Yes", FormatBool(true))
	for in, want := range map[string]bool{"Yes": true, "x": true, "TRUE": true, "No": false, "-": false, "": false} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}
