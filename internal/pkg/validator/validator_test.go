package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `binding:"required"`
	Count int    `binding:"gte=0,lte=10"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "a", Count: 3}))

	errs := Validate(sample{Count: 11})
	assert.Equal(t, "required", errs["Name"])
	assert.Equal(t, "lte", errs["Count"])
}

func TestDetails_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Details(errors.New("EOF")))
	assert.Nil(t, Details(nil))
}
