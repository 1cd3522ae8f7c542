package errs

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error codes. Wire-visible: returned as {"code":..,"msg":..} by the
// REST layer and as error frames on the websocket.
const (
	CodeUnauthorized = 10401
	CodeForbidden    = 10403
	CodeNotFound     = 10404
	CodeValidation   = 10400
	CodeUpstream     = 10502
)

var (
	ErrUnauthorized = NewCodeError(CodeUnauthorized, "unauthorized")
	ErrForbidden    = NewCodeError(CodeForbidden, "forbidden")
	ErrNotFound     = NewCodeError(CodeNotFound, "not found")
	ErrValidation   = NewCodeError(CodeValidation, "validation failed")
	ErrUpstream     = NewCodeError(CodeUpstream, "upstream failure")
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra detail; the receiver keeps
// its sentinel identity so errors.Is still matches.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !stderrors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// HTTPStatus maps an error to a REST status. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var ce *CodeError
	if !stderrors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch ce.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Payload returns the code/msg pair to serialize in an error response.
func Payload(err error) (int, string) {
	var ce *CodeError
	if stderrors.As(err, &ce) {
		msg := ce.Msg
		if ce.Detail != "" {
			msg = ce.Msg + ": " + ce.Detail
		}
		return ce.Code, msg
	}
	return CodeUpstream, err.Error()
}

// Wrap annotates an upstream error with a message and stack.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Upstream converts a collaborator failure into the upstream sentinel,
// keeping the cause in the detail.
func Upstream(err error, op string) error {
	if err == nil {
		return nil
	}
	return ErrUpstream.WithDetail(op + ": " + err.Error())
}
