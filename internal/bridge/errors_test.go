package bridge

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"llamabridge/internal/serializer"
)

func TestErrorCodesAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
		is     func(error) bool
	}{
		{ErrInvalidArgs("prompt"), CodeInvalidArgs, http.StatusBadRequest, IsInvalidArgs},
		{ErrModelNotFound("x.gguf"), CodeModelNotFound, http.StatusNotFound, IsModelNotFound},
		{initFailedError{path: "x", cause: errors.New("boom")}, CodeInitFailed, http.StatusInternalServerError, IsInitFailed},
		{ErrNotLoaded, CodeNotLoaded, http.StatusConflict, IsNotLoaded},
		{busyError{state: StateBusy}, CodeBusy, http.StatusConflict, IsBusy},
		{generationFailedError{cause: errors.New("boom")}, CodeGenerationFailed, http.StatusInternalServerError, IsGenerationFailed},
		{ErrSerializerShutdown, CodeSerializerShutdown, http.StatusServiceUnavailable, IsSerializerShutdown},
		{ErrNoSubscriber, CodeNoSubscriber, http.StatusConflict, IsNoSubscriber},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			var e Error
			if !errors.As(tc.err, &e) {
				t.Fatalf("%T does not implement Error", tc.err)
			}
			if e.Code() != tc.code || e.StatusCode() != tc.status {
				t.Fatalf("got %s/%d want %s/%d", e.Code(), e.StatusCode(), tc.code, tc.status)
			}
			wrapped := fmt.Errorf("op: %w", tc.err)
			if !tc.is(wrapped) {
				t.Fatalf("predicate does not see through wrapping")
			}
			if CodeOf(wrapped) != tc.code {
				t.Fatalf("CodeOf=%q", CodeOf(wrapped))
			}
		})
	}
}

func TestCauseIsUnwrappable(t *testing.T) {
	cause := errors.New("kv cache full")
	if err := (generationFailedError{cause: cause}); !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if !errors.Is(ErrSerializerShutdown, serializer.ErrShutdown) {
		t.Fatalf("shutdown error should unwrap to serializer.ErrShutdown")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("foreign errors carry no code")
	}
}

func TestJobErr(t *testing.T) {
	if jobErr(nil, nil) != nil {
		t.Fatalf("nil stays nil")
	}
	if err := jobErr(fmt.Errorf("x: %w", serializer.ErrShutdown), nil); !IsSerializerShutdown(err) {
		t.Fatalf("shutdown not mapped: %v", err)
	}
	err := jobErr(errors.New("boom"), func(c error) error { return generationFailedError{cause: c} })
	if !IsGenerationFailed(err) {
		t.Fatalf("wrap not applied: %v", err)
	}
}
