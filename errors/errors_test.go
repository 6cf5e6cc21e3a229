package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseRuntime,
				Kind:    KindTypeMismatch,
				Path:    []string{"lerp", "arg2"},
				GoType:  "string",
				WitType: "f64",
				Detail:  "cannot lower",
			},
			contains: []string{"[runtime]", "type_mismatch", "lerp.arg2", "string", "f64", "cannot lower"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindUnavailable,
				Detail: "wat2wasm not found",
				Cause:  errors.New("exec: not found"),
			},
			contains: []string{"[compile]", "unavailable", "wat2wasm not found", "caused by", "exec: not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseValidate, KindInvalidData, cause, "function 3")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not walk to cause")
	}
}

func TestError_Is(t *testing.T) {
	err := Unavailable("sin")

	if !errors.Is(err, ErrUnavailable) {
		t.Error("Unavailable should match ErrUnavailable")
	}
	if errors.Is(err, ErrKernelUnavailable) {
		t.Error("operation unavailability must not match kernel unavailability")
	}
	if errors.Is(err, ErrNotReady) {
		t.Error("Unavailable should not match ErrNotReady")
	}

	wrapped := KernelUnavailable(Instantiation(errors.New("bad magic")))
	if !errors.Is(wrapped, ErrKernelUnavailable) {
		t.Error("KernelUnavailable should match ErrKernelUnavailable")
	}
	var target *Error
	if !errors.As(wrapped.Cause, &target) || target.Kind != KindInstantiation {
		t.Errorf("cause = %v, want instantiation error", wrapped.Cause)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRuntime, KindTypeMismatch).
		Path("factorial", "n").
		GoType("string").
		WitType("s32").
		Value("x").
		Cause(cause).
		Detail("expected %s, got %s", "number", "string").
		Build()

	if err.Phase != PhaseRuntime {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRuntime)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "factorial" || err.Path[1] != "n" {
		t.Errorf("Path = %v, want [factorial n]", err.Path)
	}
	if err.GoType != "string" || err.WitType != "s32" {
		t.Errorf("GoType=%v WitType=%v", err.GoType, err.WitType)
	}
	if err.Value != "x" {
		t.Errorf("Value = %v, want x", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected number, got string" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		name string
		kind Kind
	}{
		{TypeMismatch(PhaseRuntime, nil, "int", "f64"), "TypeMismatch", KindTypeMismatch},
		{Unsupported(PhaseDecode, "import section"), "Unsupported", KindUnsupported},
		{OutOfBounds(PhaseValidate, []string{"call"}, 40, 12), "OutOfBounds", KindOutOfBounds},
		{InvalidData(PhaseDecode, nil, "bad magic"), "InvalidData", KindInvalidData},
		{NotInitialized(PhaseRuntime, "kernel"), "NotInitialized", KindNotInitialized},
		{NotFound(PhaseAssemble, "operation", "sinh"), "NotFound", KindNotFound},
		{InvalidInput(PhaseRuntime, "want 2 args"), "InvalidInput", KindInvalidInput},
		{Trap("div_i32", errors.New("integer divide by zero")), "Trap", KindTrap},
		{Instantiation(errors.New("x")), "Instantiation", KindInstantiation},
		{Load("compile", errors.New("x")), "Load", KindInvalidData},
		{ParseFailed("WAT", errors.New("x")), "ParseFailed", KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	if v := OutOfBounds(PhaseValidate, nil, 40, 12).Value; v != 40 {
		t.Errorf("OutOfBounds Value = %v, want 40", v)
	}
}
