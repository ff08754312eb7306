package rest

import (
	"errors"
	"net/http"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/server"

	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ErrResponse model info
//
//	@Description	error response body
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

// ErrChooser renders a service error with the status its code maps to.
func ErrChooser(err error) render.Renderer {
	var serverErr *server.Error
	if !errors.As(err, &serverErr) {
		return ErrInternalServerErrorRend(errors.New("internal server error"))
	}

	switch serverErr.Code() {
	case server.ErrNotFound:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Not found.",
			AppCode:        int64(serverErr.Code()),
			ErrorText:      serverErr.Message(),
		}
	case server.ErrBadParamInput:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusBadRequest,
			StatusText:     "Invalid request.",
			AppCode:        int64(serverErr.Code()),
			ErrorText:      err.Error(),
		}
	case server.ErrUnprocessable:
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "Unprocessable request.",
			AppCode:        int64(serverErr.Code()),
			ErrorText:      serverErr.Message(),
		}
	default:
		return ErrInternalServerErrorRend(errors.New("internal server error"))
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
