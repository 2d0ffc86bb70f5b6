package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	weekdays = map[string]struct{}{
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
		"friday": {}, "saturday": {}, "sunday": {},
	}
)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs json field naming and the custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("hhmm", hhmmValidator); err != nil {
		log.Fatal("register hhmm validator failed")
	}
	if err := v.RegisterValidation("weekday", weekdayValidator); err != nil {
		log.Fatal("register weekday validator failed")
	}
}

var hhmmValidator validator.Func = func(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

var weekdayValidator validator.Func = func(fl validator.FieldLevel) bool {
	_, ok := weekdays[fl.Field().String()]
	return ok
}
