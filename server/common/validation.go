package common

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON decodes the body into req and runs its validate tags. On failure
// it writes a 400 and returns false.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		RespondBadRequest(c, "validation failed", describeValidation(err)...)
		return false
	}
	return true
}

func describeValidation(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			details = append(details, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		details = append(details, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return details
}
