/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package util

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// RealClock implements Clock interface.
type RealClock struct{}

var _ Clock = &RealClock{}

func (RealClock) Now() time.Time {
	return time.Now()
}
