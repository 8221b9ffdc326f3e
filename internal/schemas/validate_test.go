package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLeads_ValidPayload(t *testing.T) {
	payload := map[string]any{
		"emails":                []any{"sales@acme.com"},
		"phone_numbers":         []any{"+1 555 0100"},
		"social_media_profiles": []any{"https://linkedin.com/company/acme"},
		"extra_field":           "allowed",
	}
	assert.NoError(t, ValidateLeads(payload))
}

func TestValidateLeads_EmptyObject(t *testing.T) {
	assert.NoError(t, ValidateLeads(map[string]any{}))
}

func TestValidateLeads_NonObject(t *testing.T) {
	err := ValidateLeads([]any{"not", "an", "object"})
	require.Error(t, err)
}

func TestValidateLeads_MistypedField(t *testing.T) {
	err := ValidateLeads(map[string]any{"emails": "should-be-array"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "emails")
}
