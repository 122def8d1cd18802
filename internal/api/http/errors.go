package httpapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	validate = validator.New()
	trans    ut.Translator
)

func init() {
	// Report query/json names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
}

// validateStruct runs the validator and turns failures into a 400 with
// readable messages.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
}

// ErrorHandler is the central fiber error handler. Domain errors are mapped
// to status codes; anything unrecognized is logged and reported as a 500.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return func(c *fiber.Ctx, err error) error {
		code, msg := statusFor(err)
		if code >= fiber.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

func statusFor(err error) (int, string) {
	var (
		fe *fiber.Error
		uf *upstreamFailure
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, weather.ErrLocationNotSelected):
		return fiber.StatusBadRequest, "Location not selected"
	case errors.Is(err, units.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, settings.ErrNotFound):
		return fiber.StatusNotFound, "settings not found"
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, "no weather data for requested location"
	case errors.As(err, &uf):
		return fiber.StatusBadGateway, uf.msg
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// upstreamError marks failures of the weather and geocoding APIs as 502 so
// they are not confused with bugs in this service.
func upstreamError(err error, msg string) error {
	if errors.Is(err, weather.ErrLocationNotSelected) || errors.Is(err, units.ErrInvalidInput) {
		return err
	}
	return &upstreamFailure{msg: msg, cause: err}
}

type upstreamFailure struct {
	msg   string
	cause error
}

func (e *upstreamFailure) Error() string { return e.msg + ": " + e.cause.Error() }

func (e *upstreamFailure) Unwrap() error { return e.cause }
