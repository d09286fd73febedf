// Package validate wraps go-playground/validator with English messages keyed
// by JSON field names.
package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

const (
	requiredTag  = "required"
	requiredText = "this field is required"
)

type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func New() *Validator {
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")

	v := validator.New()
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterTranslation(requiredTag, trans,
		func(t ut.Translator) error { return t.Add(requiredTag, requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(requiredTag, fe.Field())
			return s
		},
	)
	return &Validator{v: v, trans: trans}
}

// Struct validates s. It returns field messages keyed by namespace-less JSON
// path (e.g. "students[2].usn"), or nil when s is valid.
func (v *Validator) Struct(s any) (map[string]string, error) {
	err := v.v.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = fe.Translate(v.trans)
	}
	return out, nil
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
