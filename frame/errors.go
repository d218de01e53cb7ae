// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateLabel indicates an index built from repeated labels.
	ErrDuplicateLabel = errors.New("frame: duplicate label")

	// ErrUnknownLabel indicates a lookup of a label absent from the index.
	ErrUnknownLabel = errors.New("frame: unknown label")

	// ErrLabelMismatch indicates operands whose label sets do not align.
	ErrLabelMismatch = errors.New("frame: label mismatch")

	// ErrShape indicates data whose shape disagrees with the indices.
	ErrShape = errors.New("frame: data shape does not match labels")
)

func frameErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func labelErrorf(op, label string, err error) error {
	return fmt.Errorf("%s(%q): %w", op, label, err)
}
