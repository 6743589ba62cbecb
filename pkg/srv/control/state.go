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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
)

const (
	LockTimeout          = time.Second
	BucketNamePrefix     = "reg_"
	MetaBucketNamePrefix = "meta_"
	StatusKey            = "status"
)

// Snapshot is the last known driver state of a device.
type Snapshot struct {
	driver.Status
	Mask []string `json:"mask,omitempty"`
}

// RegState keeps a shadow copy of every register written to a device.
// Pattern RAM words are not journaled; the committed mask is kept in the
// snapshot instead.
type RegState struct {
	context.Context
	DB *bbolt.DB
}

func NewRegState(ctx context.Context, dbPath string, deviceName string) (*RegState, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	// open register database, a second process holding it times out
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: LockTimeout})
	if err != nil {
		return nil, ErrStateLocked{Path: dbPath, Err: err}
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketName(deviceName), metaBucketName(deviceName)} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &RegState{
		Context: ctx,
		DB:      db,
	}, nil
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func bucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, deviceName)
}

func metaBucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", MetaBucketNamePrefix, deviceName)
}

func (s *RegState) Close() {
	s.DB.Close()
}

// SetReg records value as the last written content of offset.
func (s *RegState) SetReg(offset, value uint32, deviceName string) error {
	log.Debug("Journaling register: Addr: %x Value: %x", offset, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(deviceName)))
		}
		return b.Put(uint32ToByte(offset), uint32ToByte(value))
	})
}

func (s *RegState) GetReg(offset uint32, deviceName string) (uint32, error) {
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(deviceName)))
		}
		valueBytes := b.Get(uint32ToByte(offset))
		if valueBytes == nil {
			return ErrNotJournaled{Offset: offset}
		}
		value = binary.BigEndian.Uint32(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// GetRegAll returns every journaled register ordered by offset.
func (s *RegState) GetRegAll(deviceName string) ([]*RegHex, error) {
	var regs []*RegHex
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucketName(deviceName)))
		}
		return b.ForEach(func(k, v []byte) error {
			offset := binary.BigEndian.Uint32(k)
			regs = append(regs, newRegHex(offset, binary.BigEndian.Uint32(v)))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return regs, nil
}

func (s *RegState) SetSnapshot(snapshot *Snapshot, deviceName string) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(metaBucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", metaBucketName(deviceName)))
		}
		return b.Put([]byte(StatusKey), data)
	})
}

// GetSnapshot returns the stored snapshot or nil when none was recorded.
func (s *RegState) GetSnapshot(deviceName string) (*Snapshot, error) {
	var data []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(metaBucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", metaBucketName(deviceName)))
		}
		if v := b.Get([]byte(StatusKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	snapshot := &Snapshot{}
	if err := yaml.Unmarshal(data, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Journal adapts the state of one device to device.Journal.
func (s *RegState) Journal(deviceName string) device.Journal {
	return &regJournal{state: s, deviceName: deviceName}
}

type regJournal struct {
	state      *RegState
	deviceName string
}

func (j *regJournal) Record(offset, value uint32) error {
	if reg, ok := device.RegMap.Lookup(offset); ok && reg.Words > 1 {
		return nil
	}
	return j.state.SetReg(offset, value, j.deviceName)
}
