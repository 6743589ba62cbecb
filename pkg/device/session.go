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
	"kymeta.com/kdk/go-rcdriver/pkg/log"
)

// RegisterFile is the raw word addressed backing store of a session.
type RegisterFile interface {
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
	Close() error
}

// Opener maps the register window found at path.
type Opener func(path string) (RegisterFile, error)

// Journal receives every register write accepted by a session.
type Journal interface {
	Record(offset, value uint32) error
}

// Session is an open mapping of the register window. Every access is checked
// against the register map before it reaches the register file.
type Session struct {
	path    string
	regs    RegisterMap
	rf      RegisterFile
	journal Journal
	open    bool
}

type Option func(*Session)

func WithRegisterMap(regs RegisterMap) Option {
	return func(s *Session) {
		s.regs = regs
	}
}

func WithJournal(j Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// Open maps the device at path with the given opener.
func Open(path string, opener Opener, opts ...Option) (*Session, error) {
	s := &Session{
		path: path,
		regs: RegMap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.regs.Validate(); err != nil {
		return nil, ErrMap{Path: path, Err: err}
	}
	rf, err := opener(path)
	if err != nil {
		return nil, ErrMap{Path: path, Err: err}
	}
	s.rf = rf
	s.open = true
	log.Debug("Device %s mapped", path)
	return s, nil
}

// Close unmaps the window. Closing a closed session is a no-op.
func (s *Session) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	if err := s.rf.Close(); err != nil {
		return ErrUnmap{Path: s.path, Err: err}
	}
	log.Debug("Device %s unmapped", s.path)
	return nil
}

func (s *Session) IsOpen() bool {
	return s.open
}

func (s *Session) Path() string {
	return s.path
}

func (s *Session) RegisterMap() RegisterMap {
	return s.regs
}

func (s *Session) check(offset uint32) (*Register, error) {
	if !s.open {
		return nil, ErrAccess{Offset: offset, What: "session is closed"}
	}
	if offset%4 != 0 {
		return nil, ErrAccess{Offset: offset, What: "offset is not word aligned"}
	}
	reg, ok := s.regs.Lookup(offset)
	if !ok {
		return nil, ErrAccess{Offset: offset, What: "no register at this offset"}
	}
	return reg, nil
}

// Read returns the word at the byte offset.
func (s *Session) Read(offset uint32) (uint32, error) {
	reg, err := s.check(offset)
	if err != nil {
		return 0, err
	}
	if !reg.Access.CanRead() {
		return 0, ErrAccess{Offset: offset, What: reg.Name + " is write only"}
	}
	value, err := s.rf.ReadU32(offset)
	if err != nil {
		return 0, ErrRead{Offset: offset, Err: err}
	}
	return value, nil
}

// Write stores value at the byte offset.
func (s *Session) Write(offset uint32, value uint32) error {
	reg, err := s.check(offset)
	if err != nil {
		return err
	}
	if !reg.Access.CanWrite() {
		return ErrAccess{Offset: offset, What: reg.Name + " is read only"}
	}
	if err := s.rf.WriteU32(offset, value); err != nil {
		return ErrWrite{Offset: offset, Err: err}
	}
	if s.journal != nil {
		if err := s.journal.Record(offset, value); err != nil {
			log.Warning("Failed to journal write 0x%08x to 0x%x: %s", value, offset, err)
		}
	}
	return nil
}

func (s *Session) ReadReg(alias RegAlias) (uint32, error) {
	return s.Read(s.regs.Offset(alias))
}

func (s *Session) WriteReg(alias RegAlias, value uint32) error {
	return s.Write(s.regs.Offset(alias), value)
}

// SetCommand sets or clears a command bit with a read-modify-write of its
// register. Other bits of the register are preserved.
func (s *Session) SetCommand(cmd Command, on bool) error {
	bit, ok := CommandMap[cmd]
	if !ok {
		return ErrAccess{What: "unknown command " + cmd.String()}
	}
	value, err := s.ReadReg(bit.Reg)
	if err != nil {
		return err
	}
	if on {
		value |= bit.Mask
	} else {
		value &^= bit.Mask
	}
	return s.WriteReg(bit.Reg, value)
}

// Command reports whether a command bit is set.
func (s *Session) Command(cmd Command) (bool, error) {
	bit, ok := CommandMap[cmd]
	if !ok {
		return false, ErrAccess{What: "unknown command " + cmd.String()}
	}
	value, err := s.ReadReg(bit.Reg)
	if err != nil {
		return false, err
	}
	return value&bit.Mask != 0, nil
}
