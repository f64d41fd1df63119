package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidationErrors(t *testing.T) {
	type req struct {
		Prompt   string   `validate:"required"`
		Duration int      `validate:"min=1,max=1800"`
		Ratio    string   `validate:"omitempty,oneof=16:9 9:16 1:1"`
		URL      string   `validate:"omitempty,url"`
		Videos   []string `validate:"min=1"`
	}

	err := validate.Struct(&req{Ratio: "4:3", URL: "not-a-url"})
	require.Error(t, err)

	fields := FormatValidationErrors(err)
	assert.Equal(t, "is required", fields["Prompt"])
	assert.Equal(t, "must be at least 1", fields["Duration"])
	assert.Equal(t, "must be one of: 16:9 9:16 1:1", fields["Ratio"])
	assert.Equal(t, "must be a valid URL", fields["URL"])
	assert.Equal(t, "needs at least 1 item(s)", fields["Videos"])
}
