package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/domain"
)

type input struct {
	Name  string `validate:"required"`
	Count int    `validate:"min=1,max=10"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(input{Name: "go", Count: 3}))

	err := Struct(input{Count: 11})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "input.Name: required")
	assert.Contains(t, err.Error(), "input.Count: max=10")
}
