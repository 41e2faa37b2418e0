package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"fictures-server/internal/models"
)

// init registers custom rules on gin's binding validator so request structs
// can use them in binding tags.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("scope", validScopeRule)
}

// validScopeRule accepts any scope string the permission model knows about.
func validScopeRule(fl validator.FieldLevel) bool {
	return models.ValidScope(fl.Field().String())
}
