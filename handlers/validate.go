// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/danielhkuo/ku-polls/auth"
	"github.com/danielhkuo/ku-polls/models"
)

var (
	formDecoder = newFormDecoder()
	validate    = newValidator()
)

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.MaxSize(maxChoiceRows)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return models.UsernamePattern.MatchString(fl.Field().String())
	})
	// bcrypt rejects passwords over 72 bytes, whatever their rune count
	mustRegister(v, "bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(choiceInput)
		if c.ID != 0 && !c.Delete && c.Text == "" {
			sl.ReportError(c.Text, "Text", "Text", "required", "")
		}
	}, choiceInput{})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// decodeForm parses the request body into dst using its schema tags
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return formDecoder.Decode(dst, r.PostForm)
}

// decodeErrors turns a decoder failure into form messages, one per field
func decodeErrors(err error) []string {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return []string{"The form could not be read."}
	}

	keys := make([]string, 0, len(multi))
	for key := range multi {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, key := range keys {
		var i int
		if _, err := fmt.Sscanf(key, "choices.%d.", &i); err == nil && strings.HasSuffix(key, ".id") {
			msgs = append(msgs, fmt.Sprintf("Choice %d: invalid id.", i+1))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: enter a valid value.", key))
	}
	return msgs
}

// fieldErrors maps validation failures to messages keyed by "Field.tag".
// Validator reports at most one failing tag per field, in field order.
func fieldErrors(err error, messages map[string]string) []string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, fe.Field()+" is invalid.")
	}
	return msgs
}
