package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
	cerr "github.com/opst/pipedeck/pkg/rest/errors"
)

// MessageFor is summaries of errors per range of status code.
type MessageFor map[StatusCodeRange]string

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: summary of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is not 2xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	if err := errorOf(resp, messageFor); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		message := fmt.Sprintf("unexpected response: %s (status code = %d)", err, resp.StatusCode)
		return cerr.NewCuiError(message, cerr.WithCause(err))
	}
	return nil
}

// errorOf returns CUIError when resp is not successful. Otherwise nil.
func errorOf(resp *http.Response, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	if scr == Status2xx {
		return nil
	}

	message, ok := messageFor[scr]
	if !ok {
		message = fmt.Sprintf("%s (status code = %d)", scr, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cerr.NewCuiError(
			fmt.Sprintf("%s\ncannot read server message: %s", message, err),
			cerr.WithCause(err),
		)
	}

	detail := parseErrorMessage(body)
	return cerr.NewCuiError(
		message,
		cerr.WithDetail(func(summary string) (string, error) {
			if detail == "" {
				return summary, nil
			}
			return summary + "\n" + detail, nil
		}),
		cerr.WithVerbose(fmt.Sprintf("%s %s -> %d", resp.Request.Method, resp.Request.URL, resp.StatusCode)),
	)
}

// parseErrorMessage formats error response body.
//
// The body can be ErrorMessage of deckd, {"message": "..."} of the orchestration API,
// or anything else.
func parseErrorMessage(body []byte) string {
	em := new(apierr.ErrorMessage)
	if err := json.Unmarshal(body, em); err == nil {
		return em.String()
	}

	msg := new(struct {
		Error   string  `json:"error"`
		Message *string `json:"message"`
	})
	if err := json.Unmarshal(body, msg); err == nil && msg.Message != nil {
		if msg.Error != "" {
			return msg.Error + ": " + *msg.Message
		}
		return *msg.Message
	}

	return string(body)
}
