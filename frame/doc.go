// SPDX-License-Identifier: MIT

// Package frame pairs dense matrices and vectors with ordered row and column
// labels, so every intermediate of an allocation stays addressable by bus or
// branch identity.
//
// Every binary operation checks label alignment: operands whose label sets
// agree but whose order differs are permuted to match the left operand;
// operands whose label sets differ fail with ErrLabelMismatch. Nothing is
// silently dropped or duplicated.
//
// The numeric work is delegated to package matrix.
package frame
