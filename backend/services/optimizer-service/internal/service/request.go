package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"chargeroute/backend/services/optimizer-service/internal/models"
)

// OptimizeRequest is the input of the pipeline. Every field is required; zero and empty values
// count as present.
type OptimizeRequest struct {
	Latitude  *float64           `json:"latitude" validate:"required"`
	Longitude *float64           `json:"longitude" validate:"required"`
	VehicleID *models.Identifier `json:"veiculo_id" validate:"required"`
	UserID    *models.Identifier `json:"usuario_id" validate:"required"`
}

// ValidationError lists the missing fields by JSON name, in declaration order.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Missing, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field in one pass and returns a *ValidationError naming all of the
// missing ones.
func Validate(req OptimizeRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &ValidationError{Missing: missing}
}
