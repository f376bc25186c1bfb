package errors_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	apierr "github.com/opst/pipedeck/pkg/api/types/errors"
)

func TestErrorMessage_UnmarshalJSON(t *testing.T) {
	t.Run("it parses message with reason", func(t *testing.T) {
		msg := apierr.ErrorMessage{}
		if err := json.Unmarshal([]byte(`{"reason": "r", "advice": "a"}`), &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Reason != "r" || msg.Advice != "a" {
			t.Errorf("unexpected message: %+v", msg)
		}
	})

	t.Run("it rejects message without reason", func(t *testing.T) {
		msg := apierr.ErrorMessage{}
		if err := json.Unmarshal([]byte(`{"message": "not ours"}`), &msg); err == nil {
			t.Errorf("no error: %+v", msg)
		}
	})
}

func TestNewErrorMessage(t *testing.T) {
	cause := errors.New("fake error")
	herr := apierr.BadGateway("task failed", cause, apierr.WithAdvice("retry later"))

	if herr.Code != http.StatusBadGateway {
		t.Errorf("unexpected code: %d", herr.Code)
	}
	msg, ok := herr.Message.(apierr.ErrorMessage)
	if !ok {
		t.Fatalf("message is not ErrorMessage: %T", herr.Message)
	}
	if msg.Reason != "task failed" || msg.Advice != "retry later" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if !errors.Is(herr.Internal, cause) {
		t.Errorf("internal error does not wrap cause: %+v", herr.Internal)
	}
}

func TestGatewayTimeout(t *testing.T) {
	herr := apierr.GatewayTimeout("wait more", context.DeadlineExceeded)
	if herr.Code != http.StatusGatewayTimeout {
		t.Errorf("unexpected code: %d", herr.Code)
	}
	if !errors.Is(herr.Internal, context.DeadlineExceeded) {
		t.Errorf("internal error does not wrap cause: %+v", herr.Internal)
	}
	if msg := herr.Message.(apierr.ErrorMessage); msg.Advice != "wait more" {
		t.Errorf("unexpected message: %+v", msg)
	}
}
