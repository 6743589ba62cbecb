//go:build linux
// +build linux

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
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mmap is a register file backed by a shared mapping of a character device.
type Mmap struct {
	file *os.File
	mem  []byte
}

// OpenMmap maps WindowSize bytes of the device file read-write.
func OpenMmap(path string) (RegisterFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(int(file.Fd()), 0, WindowSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &Mmap{file: file, mem: mem}, nil
}

func (m *Mmap) word(offset uint32) (*uint32, error) {
	if m.mem == nil {
		return nil, errors.New("register window is not mapped")
	}
	if int(offset)+4 > len(m.mem) {
		return nil, fmt.Errorf("offset 0x%x outside register window", offset)
	}
	return (*uint32)(unsafe.Pointer(&m.mem[offset])), nil
}

func (m *Mmap) ReadU32(offset uint32) (uint32, error) {
	p, err := m.word(offset)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (m *Mmap) WriteU32(offset uint32, value uint32) error {
	p, err := m.word(offset)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, value)
	return nil
}

func (m *Mmap) Close() error {
	var err error
	if m.mem != nil {
		err = unix.Munmap(m.mem)
		m.mem = nil
	}
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}
