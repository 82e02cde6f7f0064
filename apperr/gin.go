package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Abort writes err as a JSON payload with its status and stops the chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(Status(err), Payload(err))
}

// FromBinding turns a gin binding failure into a validation error, listing
// the offending fields when the validator reports them.
func FromBinding(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(err, ErrBadRequest, err.Error())
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return WithFields(Wrap(err, ErrValidation, "request validation failed"), fields)
}
