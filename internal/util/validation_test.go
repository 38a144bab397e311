package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openmarket/market-server/internal/errors"
)

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3f2b8a8e-6a57-4c1e-9d3c-0d8e2f5a7b10"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("3f2b8a8e6a574c1e9d3c0d8e2f5a7b10"))
	assert.False(t, IsValidUUID("1' OR '1'='1"))
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=5"`
	}

	t.Run("valid input passes", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(input{Email: "a@b.co", Name: "shop"}))
	})

	t.Run("reports failing fields by json name", func(t *testing.T) {
		err := ValidateStruct(input{Email: "nope", Name: "too long"})
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)

		details, ok := appErr.Details.(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "email", details["email"])
		assert.Equal(t, "max", details["name"])
	})
}
