// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// All kernels return these sentinels (optionally wrapped with an operation
// tag); callers match them with errors.Is. No kernel panics on user input.

package matrix

import "errors"

// Every message is prefixed with "matrix: ..." so log lines stay greppable.

var (
	// ErrInvalidDimensions indicates negative requested dimensions or a data
	// buffer whose length does not match rows*cols.
	ErrInvalidDimensions = errors.New("matrix: invalid dimensions")

	// ErrOutOfRange indicates that a row or column index is outside bounds.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible operand shapes,
	// e.g. Add with different shapes or Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrAsymmetry signals a matrix expected to be symmetric within eps was not.
	ErrAsymmetry = errors.New("matrix: matrix is not symmetric within eps")

	// ErrNaNInf signals a NaN or ±Inf where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates a nil receiver or argument.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrEigenFailed indicates the Jacobi sweep did not converge.
	ErrEigenFailed = errors.New("matrix: eigen decomposition failed")

	// ErrSingular is returned when LU elimination meets a zero pivot column.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrUnknownVertex indicates an incidence edge whose endpoint is not
	// among the requested rows.
	ErrUnknownVertex = errors.New("matrix: unknown vertex")

	// ErrSVDFailed indicates the singular value decomposition did not converge.
	ErrSVDFailed = errors.New("matrix: svd failed")
)
