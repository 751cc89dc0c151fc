package binder

import (
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
)

type fakeFieldError struct {
	tag   string
	param string
	kind  reflect.Kind
}

func (e *fakeFieldError) Error() string                    { return "field error" }
func (e *fakeFieldError) Tag() string                      { return e.tag }
func (e *fakeFieldError) ActualTag() string                { return e.tag }
func (e *fakeFieldError) Namespace() string                { return "" }
func (e *fakeFieldError) StructNamespace() string          { return "" }
func (e *fakeFieldError) Field() string                    { return "rating" }
func (e *fakeFieldError) StructField() string              { return "Rating" }
func (e *fakeFieldError) Value() interface{}               { return nil }
func (e *fakeFieldError) Param() string                    { return e.param }
func (e *fakeFieldError) Kind() reflect.Kind               { return e.kind }
func (e *fakeFieldError) Type() reflect.Type               { return nil }
func (e *fakeFieldError) Translate(_ ut.Translator) string { return "" }

func TestFormatValidationError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag   string
		param string
		kind  reflect.Kind
		msg   string
	}{
		{mn, "1", reflect.Int, `"rating" must be greater than or equal to 1`},
		{mx, "5", reflect.Int, `"rating" must be less than or equal to 5`},
		{mx, "2000", reflect.String, `"rating" length must be less than or equal to 2000 characters`},
		{mn, "1", reflect.String, `"rating" length must be greater than or equal to 1 character`},
		{mx, "1", reflect.Slice, `"rating" length must be less than or equal to 1 element`},
		{oneof, "like dislike", reflect.String, `"rating" must be one of the following: "like", "dislike"`},
		{required, "", reflect.Int, `"rating" is required`},
		{notblank, "", reflect.String, `"rating" can't be blank`},
		{gte, "0", reflect.Int, `"rating" must be greater than or equal to 0`},
		{"unknown_tag", "", reflect.String, `"rating" is invalid`},
	}

	for _, tt := range cases {
		err := &fakeFieldError{tag: tt.tag, param: tt.param, kind: tt.kind}
		assert.Equal(t, tt.msg, formatValidationError(err), tt.tag)
	}
}
