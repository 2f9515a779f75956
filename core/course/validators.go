package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

var (
	contentKindTag  = "contentkind"
	contentKindText = "invalid content type"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(contentKindTag, contentKindValidation)
	core.RegisterCustomTranslation(validate, translator, contentKindTag, contentKindText)
}

func contentKindValidation(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range ContentKinds {
		if k == kind {
			return true
		}
	}
	return false
}
