// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	base := errors.New("bind failed")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", base, ExitFailure},
		{"direct", WithCode(ExitBind, base), ExitBind},
		{"wrapped", fmt.Errorf("listener: %w", WithCode(ExitStorageOpen, base)), ExitStorageOpen},
		{"outermost wins", WithCode(ExitConfig, WithCode(ExitBind, base)), ExitConfig},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Code(test.err); got != test.want {
				t.Errorf("Code() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestWithCodeNil(t *testing.T) {
	if err := WithCode(ExitBind, nil); err != nil {
		t.Errorf("WithCode(nil) = %v, want nil", err)
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := WithCode(ExitStorageOpen, base)
	if !errors.Is(err, base) {
		t.Error("ExitError does not unwrap to its cause")
	}
	if err.Error() != "disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}
