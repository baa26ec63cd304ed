package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Train",
			kind:    "invalid problem",
			err:     fmt.Errorf("test error"),
			wantMsg: "golinear: Train: invalid problem: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "golinear: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "golinear: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	want := "golinear: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("C", "must be positive", -1.0)
	assert.Equal(t, "golinear: validation failed for parameter 'C': must be positive (got: -1)", err.Error())

	var vErr *ValidationError
	require.True(t, As(err, &vErr))
	assert.Equal(t, "C", vErr.ParamName)
}

func TestNewParseError(t *testing.T) {
	err := NewParseError("train.txt", 3, "feature indices must be ascending")
	assert.Equal(t, "golinear: train.txt: line 3: feature indices must be ascending", err.Error())

	err = NewParseError("model", 0, "missing w section")
	assert.Equal(t, "golinear: model: missing w section", err.Error())
}

func TestConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("L2R_L1LOSS_SVC_DUAL", 300, "reaching max number of iterations")

	want := "L2R_L1LOSS_SVC_DUAL failed to converge after 300 iterations: reaching max number of iterations"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(error) {})

	Warn(NewSolverFallbackWarning("L2R_LR_DUAL", "L2R_LR", 1e-3))
	Warn(NewConvergenceWarning("ONECLASS_SVM", 1000, ""))

	require.Len(t, got, 2)
	var fb *SolverFallbackWarning
	require.True(t, As(got[0], &fb))
	assert.Equal(t, "L2R_LR", fb.To)
	assert.Contains(t, got[1].Error(), "Consider increasing max_iter")
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Train", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Train: expected 10, got 0") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, CheckScalar("objective", 1.5, 0))

	err := CheckScalar("objective", nanValue(), 4)
	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 4, numErr.Iteration)
}

func TestLogOnePlusExp(t *testing.T) {
	assert.InDelta(t, 0.6931471805599453, LogOnePlusExp(0), 1e-15)
	assert.InDelta(t, 800.0, LogOnePlusExp(800), 1e-12)
	assert.InDelta(t, 0.0, LogOnePlusExp(-800), 1e-300)
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-15)
}

func TestRecover(t *testing.T) {
	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("Predict", func() error {
			var w []float64
			_ = w[3]
			return nil
		})
		var panicErr *PanicError
		require.True(t, As(err, &panicErr))
		assert.Equal(t, "Predict", panicErr.Operation)
		assert.NotEmpty(t, panicErr.StackTrace)
	})

	t.Run("no panic keeps nil", func(t *testing.T) {
		assert.NoError(t, SafeExecute("Predict", func() error { return nil }))
	})

	t.Run("existing error is wrapped", func(t *testing.T) {
		original := fmt.Errorf("original error")
		fn := func() (err error) {
			defer Recover(&err, "Train")
			err = original
			panic("boom")
		}
		err := fn()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic in Train")
		assert.ErrorIs(t, err, original)
	})
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
