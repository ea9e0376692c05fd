package slot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Slot names shared by every flow.
const (
	Phone           = "phone"
	Service         = "service"
	ExpertName      = "expert_name"
	Date            = "date"
	Time            = "time"
	AppointmentCode = "appointment_code"
	Name            = "name"
)

var ErrValidation = errors.New("slot validation failed")

type ValidationError struct {
	Slot  string
	Value string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q (%s)", e.Slot, e.Value, e.Tag)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var rules = map[string]string{
	Phone:           "required,tr_phone",
	Service:         "required,min=2,max=100",
	ExpertName:      "required,min=2,max=100",
	Name:            "required,min=2,max=100",
	Date:            "required,datetime=2006-01-02",
	Time:            "required,datetime=15:04",
	AppointmentCode: "required,alphanum,len=6",
}

var (
	once     sync.Once
	validate *validator.Validate

	phoneNoise  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	trMobile    = regexp.MustCompile(`^05\d{9}$`)
	looseTime   = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
	collapseSpc = regexp.MustCompile(`\s+`)
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = RegisterValidation(validate)
	})
	return validate
}

// RegisterValidation adds the tr_phone tag to v.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("tr_phone", func(fl validator.FieldLevel) bool {
		_, ok := NormalizePhone(fl.Field().String())
		return ok
	})
}

// Known reports whether name has a validator.
func Known(name string) bool {
	_, ok := rules[name]
	return ok
}

// Validate checks raw against the rule of slot and returns the canonical
// value to store.
func Validate(name, raw string) (string, error) {
	rule, ok := rules[name]
	if !ok {
		return "", &ValidationError{Slot: name, Value: raw, Tag: "unknown_slot"}
	}

	value := canonical(name, raw)
	if err := engine().Var(value, rule); err != nil {
		tag := "invalid"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			tag = verrs[0].Tag()
		}
		return "", &ValidationError{Slot: name, Value: raw, Tag: tag}
	}

	switch name {
	case Phone:
		value, _ = NormalizePhone(value)
	case Date:
		t, _ := time.Parse("2006-01-02", value)
		value = t.Format("2006-01-02")
	case Time:
		t, _ := time.Parse("15:04", value)
		value = t.Format("15:04")
	}

	return value, nil
}

func canonical(name, raw string) string {
	value := strings.TrimSpace(collapseSpc.ReplaceAllString(raw, " "))
	switch name {
	case AppointmentCode:
		return strings.ToUpper(value)
	case Time:
		// "9:30" and "14.30" are accepted and re-emitted zero padded
		if m := looseTime.FindStringSubmatch(value); m != nil && len(m[1]) == 1 {
			return "0" + m[1] + ":" + m[2]
		} else if m != nil {
			return m[1] + ":" + m[2]
		}
	}
	return value
}

// InternationalPhone turns a normalized number into country code digits
// without the plus sign: 05321234567 becomes 905321234567.
func InternationalPhone(phone string) string {
	if p, ok := NormalizePhone(phone); ok {
		phone = p
	}
	if strings.HasPrefix(phone, "0") {
		return "90" + strings.TrimPrefix(phone, "0")
	}
	return phone
}

// NormalizePhone strips formatting and the +90 country prefix. It accepts
// 05XXXXXXXXX mobiles and any other 10 to 11 digit number; 10 digit
// mobiles get the leading 0 back.
func NormalizePhone(raw string) (string, bool) {
	p := phoneNoise.Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(p, "+90"):
		p = "0" + strings.TrimPrefix(p, "+90")
	case strings.HasPrefix(p, "0090"):
		p = "0" + strings.TrimPrefix(p, "0090")
	case strings.HasPrefix(p, "90") && len(p) == 12:
		p = "0" + strings.TrimPrefix(p, "90")
	}

	if !digitsOnly.MatchString(p) {
		return "", false
	}
	if len(p) == 10 && strings.HasPrefix(p, "5") {
		p = "0" + p
	}
	if trMobile.MatchString(p) {
		return p, true
	}
	if len(p) >= 10 && len(p) <= 11 {
		return p, true
	}
	return "", false
}
