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

package control

import (
	"fmt"
)

// ErrUnknownRegister returned when register name is not in the register map
type ErrUnknownRegister struct {
	Name string
}

func (e ErrUnknownRegister) Error() string {
	return fmt.Sprintf("Unknown register: %s", e.Name)
}

// ErrNotJournaled returned when register was never written through the journal
type ErrNotJournaled struct {
	Offset uint32
}

func (e ErrNotJournaled) Error() string {
	return fmt.Sprintf("Register 0x%x is not journaled", e.Offset)
}

// ErrStateLocked returned when the state database can not be opened, usually
// because another process owns the device
type ErrStateLocked struct {
	Path string
	Err  error
}

func (e ErrStateLocked) Error() string {
	return fmt.Sprintf("Error while opening state database %s: %s", e.Path, e.Err)
}

func (e ErrStateLocked) Unwrap() error {
	return e.Err
}
