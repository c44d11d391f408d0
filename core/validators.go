package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "este campo no puede estar vacío"

	dniTag   = "dni"
	dniText  = "el DNI debe tener 8 dígitos"
	dniRegex = regexp.MustCompile(`^\d{8}$`)

	phoneTag   = "phone"
	phoneText  = "el teléfono debe tener 9 dígitos y empezar con 9"
	phoneRegex = regexp.MustCompile(`^9\d{8}$`)

	personNameTag   = "personname"
	personNameText  = "solo se permiten letras y espacios"
	personNameRegex = regexp.MustCompile(`^[\p{L}\s'.-]+$`)

	pastDateTag  = "pastdate"
	pastDateText = "la fecha no puede ser posterior a hoy"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredWOTag   = "required_without"
	requiredText    = "este campo es obligatorio"
)

// NewValidator returns a validator wired with the spanish translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_es := es.New()
	uni := ut.New(_es, _es)
	translator, _ := uni.GetTranslator("es")
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators registers the default translations and the custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Dates validate as time.Time; the zero Date counts as missing.
	validate.RegisterCustomTypeFunc(dateValue, Date{})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(dniTag, regexValidation(dniRegex))
	RegisterCustomTranslation(validate, translator, dniTag, dniText)

	_ = validate.RegisterValidation(phoneTag, regexValidation(phoneRegex))
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(personNameTag, regexValidation(personNameRegex))
	RegisterCustomTranslation(validate, translator, personNameTag, personNameText)

	_ = validate.RegisterValidation(pastDateTag, pastDateValidation)
	RegisterCustomTranslation(validate, translator, pastDateTag, pastDateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWOTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors maps validation errors to {field: message}.
// Fields of nested inputs are dotted: "estudiante.dni".
func TranslateErrors(errs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[fieldPath(vErr)] = vErr.Translate(translator)
	}
	return fldErrs
}

// fieldPath drops the root struct and embedded struct names (exported Go names) from the namespace.
func fieldPath(fe validator.FieldError) string {
	segs := strings.Split(fe.Namespace(), ".")
	path := make([]string, 0, len(segs))
	for _, seg := range segs[1:] {
		if seg == "" || unicode.IsUpper([]rune(seg)[0]) {
			continue
		}
		path = append(path, seg)
	}
	if len(path) == 0 {
		return fe.Field()
	}
	return strings.Join(path, ".")
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// regexValidation matches string fields against rx. Empty strings are left to `required`.
func regexValidation(rx *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || rx.MatchString(s)
	}
}

func pastDateValidation(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return !ok || !t.After(Today().Time)
}

func dateValue(v reflect.Value) interface{} {
	d, ok := v.Interface().(Date)
	if !ok || d.IsZero() {
		return nil
	}
	return d.Time
}
