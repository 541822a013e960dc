package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FirstName", "First name"},
		{"Surname", "Surname"},
		{"RegistryPageID", "Registry page id"},
		{"IDNumber", "Id number"},
		{"email_address", "Email address"},
		{"RegistryPage.Title", "Registry page title"},
		{"Address2", "Address2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Humanize(tt.in))
		})
	}
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("yes"))
	assert.True(t, ToBool([]byte("1")))
	assert.True(t, ToBool(int64(2)))
	assert.False(t, ToBool(nil))
	assert.False(t, ToBool("off"))
}

func TestToInt64(t *testing.T) {
	n, err := ToInt64(" 42 ")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = ToInt64([]byte("7"))
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = ToInt64([]byte("3.00"))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = ToInt64("3.50")
	assert.Error(t, err)

	_, err = ToInt64("abc")
	assert.Error(t, err)

	_, err = ToInt64(nil)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "Bernie", FormatValue([]byte("Bernie")))
	assert.Equal(t, "12", FormatValue(int64(12)))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "1", FormatValue(true))
	assert.Equal(t, "2024-03-01", FormatValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01 10:30:00", FormatValue(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
}
