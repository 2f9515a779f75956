package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

var (
	correctIndexTag  = "correctindex"
	correctIndexText = "correct_index must point to one of the options"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, correctIndexTag, correctIndexText)
}

func questionStructValidation(sl validator.StructLevel) {
	nq := sl.Current().Interface().(NewQuestion)
	if nq.CorrectIndex >= len(nq.Options) {
		sl.ReportError(nq.CorrectIndex, "correct_index", "CorrectIndex", correctIndexTag, "")
	}
}
