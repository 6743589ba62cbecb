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

package device

import (
	"fmt"
)

// ErrMap returned when the register window of the device can not be opened or mapped
type ErrMap struct {
	Path string
	Err  error
}

func (e ErrMap) Error() string {
	return fmt.Sprintf("Error while mapping device %s: %s", e.Path, e.Err)
}

func (e ErrMap) Unwrap() error {
	return e.Err
}

// ErrUnmap returned when releasing the register window fails
type ErrUnmap struct {
	Path string
	Err  error
}

func (e ErrUnmap) Error() string {
	return fmt.Sprintf("Error while unmapping device %s: %s", e.Path, e.Err)
}

func (e ErrUnmap) Unwrap() error {
	return e.Err
}

// ErrAccess returned when a register operation is not allowed
type ErrAccess struct {
	Offset uint32
	What   string
}

func (e ErrAccess) Error() string {
	return fmt.Sprintf("Register access denied at 0x%x: %s", e.Offset, e.What)
}

// ErrRead returned when the register file fails to read a word
type ErrRead struct {
	Offset uint32
	Err    error
}

func (e ErrRead) Error() string {
	return fmt.Sprintf("Error while reading register 0x%x: %s", e.Offset, e.Err)
}

func (e ErrRead) Unwrap() error {
	return e.Err
}

// ErrWrite returned when the register file fails to write a word
type ErrWrite struct {
	Offset uint32
	Err    error
}

func (e ErrWrite) Error() string {
	return fmt.Sprintf("Error while writing register 0x%x: %s", e.Offset, e.Err)
}

func (e ErrWrite) Unwrap() error {
	return e.Err
}
