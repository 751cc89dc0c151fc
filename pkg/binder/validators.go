package binder

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taleweave/taleweave/pkg/models"
)

const (
	notblank  = "notblank"
	tablelist = "tablelist"
)

// notBlankValidator rejects strings made only of whitespace. It's meant for
// optional fields (with omitnil) that must not be cleared to nothing.
func notBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// tableListValidator checks a comma separated list of table names. The empty
// string is allowed and means every table.
func tableListValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, t := range strings.Split(value, ",") {
		if !models.IsWatchableTable(strings.TrimSpace(t)) {
			return false
		}
	}
	return true
}
