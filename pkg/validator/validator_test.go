package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	Day   string `json:"dayOfWeek" validate:"weekday"`
	Start string `json:"startTime" validate:"hhmm"`
}

func TestRegister_CustomTags(t *testing.T) {
	v := validator.New()
	Register(v)

	require.NoError(t, v.Struct(slot{Day: "monday", Start: "09:30"}))
	require.NoError(t, v.Struct(slot{Day: "sunday", Start: "23:59"}))

	err := v.Struct(slot{Day: "Funday", Start: "24:00"})
	require.Error(t, err)

	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)
	fields := []string{verr[0].Field(), verr[1].Field()}
	assert.ElementsMatch(t, []string{"dayOfWeek", "startTime"}, fields)
}
