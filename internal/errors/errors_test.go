package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	err := New(ErrCategoryStore, CodeWriteFailed, "insert rejected")
	expected := "[STORE:WRITE_FAILED] insert rejected"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestPipelineError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryConnection, CodeOpenFailed, "store unreachable", cause)
	expected := "[CONNECTION:OPEN_FAILED] store unreachable: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryBatch, CodeMalformedBatch, "bad document", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestPipelineError_Is(t *testing.T) {
	err1 := New(ErrCategoryStore, CodeWriteFailed, "first")
	err2 := New(ErrCategoryStore, CodeWriteFailed, "second")
	err3 := New(ErrCategoryStore, CodeCommitFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		category    ErrorCategory
		code        string
		recoverable bool
	}{
		{ErrCategoryEvent, CodeMalformedEvent, true},
		{ErrCategoryEvent, CodeUnknownType, true},
		{ErrCategoryEvent, CodeBadTimestamp, true},
		{ErrCategoryStore, CodeWriteFailed, true},
		{ErrCategoryStore, CodeCommitFailed, false},
		{ErrCategoryStore, CodeBeginFailed, false},
		{ErrCategoryConnection, CodeOpenFailed, false},
		{ErrCategoryBatch, CodeMalformedBatch, false},
		{ErrCategoryConfig, CodeInvalidConfig, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRecoverable(err) != tt.recoverable {
			t.Errorf("%s:%s recoverable=%v, want %v", tt.category, tt.code, IsRecoverable(err), tt.recoverable)
		}
	}
}

func TestIsRecoverable_WrappedChain(t *testing.T) {
	inner := NewStoreWriteError("constraint violated", fmt.Errorf("UNIQUE constraint failed"))
	outer := fmt.Errorf("record 7: %w", inner)
	if !IsRecoverable(outer) {
		t.Error("recoverable flag should survive fmt.Errorf wrapping")
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryEvent, CodeMalformedEvent, "bad record")
	if GetCategory(err) != ErrCategoryEvent {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryEvent)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-PipelineError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryEvent, CodeUnknownType, "unknown event type")
	if GetCode(err) != CodeUnknownType {
		t.Errorf("got %q, want %q", GetCode(err), CodeUnknownType)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-PipelineError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryEvent, CodeMalformedEvent, "bad record")
	detailed := err.WithDetails(map[string]interface{}{"index": 7})

	if detailed.Details["index"] != 7 {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	c := NewConnectionError("store unreachable", cause)
	if c.Category != ErrCategoryConnection || c.Recoverable {
		t.Error("NewConnectionError mismatch")
	}

	b := NewMalformedBatchError("not an array", cause)
	if b.Category != ErrCategoryBatch || !errors.Is(b, cause) {
		t.Error("NewMalformedBatchError mismatch")
	}

	e := NewMalformedEventError(CodeBadTimestamp, "unparseable timestamp", cause)
	if e.Category != ErrCategoryEvent || !e.Recoverable {
		t.Error("NewMalformedEventError mismatch")
	}

	w := NewStoreWriteError("insert rejected", cause)
	if w.Category != ErrCategoryStore || !w.Recoverable {
		t.Error("NewStoreWriteError mismatch")
	}

	cm := NewCommitError("commit failed", cause)
	if cm.Category != ErrCategoryStore || cm.Code != CodeCommitFailed || cm.Recoverable {
		t.Error("NewCommitError mismatch")
	}

	cf := NewConfigError("bad mode")
	if cf.Category != ErrCategoryConfig {
		t.Error("NewConfigError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
