/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package driver

import (
	"fmt"
	"time"
)

// ErrNoBank returned when the pattern buffer is written before the active bank is known
type ErrNoBank struct{}

func (e ErrNoBank) Error() string {
	return "Pattern bank state is not established"
}

// ErrBusy returned when a bank toggle is requested while another one is waiting for completion
type ErrBusy struct{}

func (e ErrBusy) Error() string {
	return "Bank toggle already waiting for completion"
}

// ErrTimeout returned when conifer_isr does not clear in time
type ErrTimeout struct {
	After time.Duration
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("Interrupt status not cleared after %s", e.After)
}

// ErrNotOpen returned when the driver is used without an open session
type ErrNotOpen struct{}

func (e ErrNotOpen) Error() string {
	return "Device session is not open"
}

// ErrLayout returned when the aperture does not fit the pattern buffer
type ErrLayout struct {
	What string
}

func (e ErrLayout) Error() string {
	return fmt.Sprintf("Invalid pattern buffer layout: %s", e.What)
}
