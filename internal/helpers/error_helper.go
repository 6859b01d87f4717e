package helpers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	TraceID string            `json:"trace_id,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Plots   []int64           `json:"unavailable_plots,omitempty"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
		TraceID: c.GetString("trace_id"),
	})
}

// RespondWithValidationError maps request binding failures to a 422 with
// one message per offending field.
func RespondWithValidationError(c *gin.Context, err error) {
	fields := map[string]string{}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			fields[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   HTTPStatusText(http.StatusUnprocessableEntity),
		Message: "Invalid input. Please check your fields.",
		TraceID: c.GetString("trace_id"),
		Fields:  fields,
	})
}

// RespondWithUnavailablePlots returns the 400 the purchase flow uses when
// inventory can no longer satisfy the request, naming the plots so the
// client can re-select.
func RespondWithUnavailablePlots(c *gin.Context, plotIDs []int64) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   HTTPStatusText(http.StatusBadRequest),
		Message: "Some plots are no longer available.",
		TraceID: c.GetString("trace_id"),
		Plots:   plotIDs,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "invalid value"
	}
}
