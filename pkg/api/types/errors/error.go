package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorMessage is the body of error responses of deckd.
//
//	{"reason": "task failed", "advice": "task 1234 is failed. see the orchestrator for details."}
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	Cause  error  `json:"-"`
}

var errNoReason = errors.New(`not an error message of deckd: "reason" is missing`)

func (em *ErrorMessage) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	reason, ok := raw["reason"]
	if !ok {
		return errNoReason
	}

	parsed := ErrorMessage{}
	if err := json.Unmarshal(reason, &parsed.Reason); err != nil {
		return err
	}
	if advice, ok := raw["advice"]; ok {
		if err := json.Unmarshal(advice, &parsed.Advice); err != nil {
			return err
		}
	}
	*em = parsed
	return nil
}

func (em ErrorMessage) String() string {
	b := new(strings.Builder)
	b.WriteString(em.Reason)
	if em.Advice != "" {
		b.WriteString("\n" + em.Advice)
	}
	if em.Cause != nil {
		b.WriteString("\n caused by: " + em.Cause.Error())
	}
	return b.String()
}

func (em ErrorMessage) Error() string {
	return em.String()
}

func (em ErrorMessage) Unwrap() error {
	return em.Cause
}

type Option func(*ErrorMessage)

func WithAdvice(advice string) Option {
	return func(em *ErrorMessage) {
		em.Advice = advice
	}
}

func WithCause(err error) Option {
	return func(em *ErrorMessage) {
		em.Cause = err
	}
}

// New builds *echo.HTTPError responding ErrorMessage.
//
// The ErrorMessage is set as the internal error also, to be logged with its cause.
func New(status int, reason string, options ...Option) *echo.HTTPError {
	em := ErrorMessage{Reason: reason}
	for _, opt := range options {
		opt(&em)
	}
	return echo.NewHTTPError(status, em).SetInternal(em)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return New(http.StatusBadRequest, "bad request", WithAdvice(advice), WithCause(err))
}

// BadGateway is for errors caused by the orchestration API.
func BadGateway(reason string, err error, options ...Option) *echo.HTTPError {
	return New(http.StatusBadGateway, reason, append([]Option{WithCause(err)}, options...)...)
}

// GatewayTimeout is for tasks which do not settle in time.
func GatewayTimeout(advice string, err error) *echo.HTTPError {
	return New(
		http.StatusGatewayTimeout, "task does not complete in time",
		WithAdvice(advice), WithCause(err),
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return New(
		http.StatusInternalServerError, "unexpected error",
		WithAdvice("ask your system admin."), WithCause(err),
	)
}
