package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// HandleValidationErrors renders ReadJSON/validator failures as a 400 with
// one message per offending field.
func HandleValidationErrors(err error, ctx iris.Context) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages,
				fmt.Sprintf("field %s failed on the %s rule", fieldErr.Field(), fieldErr.Tag()))
		}
		Fail(ctx, iris.StatusBadRequest, strings.Join(messages, "; "))
		return
	}
	Fail(ctx, iris.StatusBadRequest, "invalid request body")
}
