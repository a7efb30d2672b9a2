package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleStruct struct {
	Name  string  `validate:"required"`
	Count int     `validate:"gte=1,lte=100"`
	Mode  string  `validate:"omitempty,oneof=fast slow"`
	Ratio float64 `validate:"gte=0,lte=1"`
}

func TestValidateStruct_Valid(t *testing.T) {
	s := sampleStruct{Name: "ok", Count: 10, Mode: "fast", Ratio: 0.5}
	assert.NoError(t, ValidateStruct(s))
}

func TestValidateStruct_FieldMessages(t *testing.T) {
	s := sampleStruct{Count: 0, Mode: "warp", Ratio: 2}

	err := ValidateStruct(s)
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	fields := GetValidationFields(err)
	assert.Contains(t, fields["Name"], "required")
	assert.Contains(t, fields["Count"], "greater than or equal to 1")
	assert.Contains(t, fields["Mode"], "one of")
	assert.Contains(t, fields["Ratio"], "less than or equal to 1")
}

func TestIsValidationError_OtherError(t *testing.T) {
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
}
