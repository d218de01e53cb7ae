// SPDX-License-Identifier: MIT

package allocation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/katalvlaran/gridflow/network"
)

var (
	// ErrNoFlowData indicates a network without computed branch flows.
	// A power flow has to be solved before anything can be allocated.
	ErrNoFlowData = errors.New("allocation: network has no branch flow data")

	// ErrUnsupportedMethod indicates an unknown method identifier.
	ErrUnsupportedMethod = errors.New("allocation: unsupported method")

	// ErrUnknownRegion indicates a region without buses.
	ErrUnknownRegion = errors.New("allocation: no bus in region")

	// ErrStaging indicates a failure of the on-disk staging store.
	ErrStaging = errors.New("allocation: staging store")
)

// NoFlowDataError names the network that lacks flows.
type NoFlowDataError struct {
	Network string
}

func (e *NoFlowDataError) Error() string {
	if e.Network == "" {
		return ErrNoFlowData.Error() + "; solve the network flows first"
	}

	return fmt.Sprintf("%s %q; solve the network flows first", ErrNoFlowData, e.Network)
}

func (e *NoFlowDataError) Unwrap() error { return ErrNoFlowData }

// UnsupportedMethodError carries the rejected name and the accepted ones.
type UnsupportedMethodError struct {
	Name  string
	Valid []string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("%s %q (choose one of %s)", ErrUnsupportedMethod, e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnsupportedMethodError) Unwrap() error { return ErrUnsupportedMethod }

// snapshotErrorf tags err with the method and snapshot it occurred at.
func snapshotErrorf(method string, sn time.Time, err error) error {
	return fmt.Errorf("allocation: %s at %s: %w", method, network.SnapshotLabel(sn), err)
}

func stagingErrorf(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStaging, op, err)
}
