package xerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_CarriesInnerAsDetail(t *testing.T) {
	inner := errors.New("disk full")
	err := Wrap(WriteError, "cannot write file", inner)

	xe, ok := err.(Error)
	assert.True(t, ok)
	assert.Equal(t, WriteError, xe.Code)
	assert.Equal(t, "disk full", xe.Detail)
	assert.Contains(t, xe.Error(), "cannot write file")
	assert.Contains(t, xe.Error(), "disk full")
}

func TestWrap_NilInner(t *testing.T) {
	err := Wrap(ReadError, "cannot read file", nil)
	xe := err.(Error)
	assert.Empty(t, xe.Detail)
	assert.Equal(t, "cannot read file", xe.Error())
}

func TestNew_NoDetail(t *testing.T) {
	err := New(Oversize, "file too big")
	assert.Equal(t, "file too big", err.Error())
}

func TestJSON_RoundTripsFields(t *testing.T) {
	e := Error{Code: InvalidRule, Message: "bad rule", Detail: "from is empty"}
	s := e.JSON()
	assert.Contains(t, s, `"code":"INVALID_RULE"`)
	assert.Contains(t, s, `"message":"bad rule"`)
	assert.Contains(t, s, `"detail":"from is empty"`)
}

func TestJSON_OmitsEmptyDetail(t *testing.T) {
	e := Error{Code: Unknown, Message: "oops"}
	s := e.JSON()
	assert.NotContains(t, s, "detail")
}
