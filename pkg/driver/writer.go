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

	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

// ColumnsPerWord is the number of column lanes packed into a pattern word.
const ColumnsPerWord = 16

// Layout maps an aperture onto pattern RAM words. Each row takes
// RowGroupSize consecutive words; column c sits in word c/16 of its row.
type Layout struct {
	Rows         int
	Columns      int
	RowGroupSize int
}

func (l Layout) Validate() error {
	if l.Rows <= 0 || l.Columns <= 0 {
		return ErrLayout{What: fmt.Sprintf("aperture %dx%d is empty", l.Rows, l.Columns)}
	}
	need := (l.Columns + ColumnsPerWord - 1) / ColumnsPerWord
	if l.RowGroupSize < need {
		return ErrLayout{What: fmt.Sprintf("%d columns need %d words per row, have %d", l.Columns, need, l.RowGroupSize)}
	}
	if l.Words() > BankWords {
		return ErrLayout{What: fmt.Sprintf("%d words do not fit a %d word bank", l.Words(), BankWords)}
	}
	return nil
}

func (l Layout) Words() int {
	return l.Rows * l.RowGroupSize
}

// LaneBit returns the bit of lane k (0..15) inside a pattern word. Lanes 0-7
// occupy bits 8-15 and lanes 8-15 bits 24-31.
func LaneBit(k int) uint32 {
	if k < 8 {
		return 1 << uint(8+k)
	}
	return 1 << uint(24+k-8)
}

// Encode packs a mask into pattern words.
func (l Layout) Encode(m *pattern.Mask) ([]uint32, error) {
	if m.Rows != l.Rows || m.Columns != l.Columns {
		return nil, pattern.ErrInvalidPattern{What: fmt.Sprintf("mask is %dx%d, aperture is %dx%d",
			m.Rows, m.Columns, l.Rows, l.Columns)}
	}
	words := make([]uint32, l.Words())
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Columns; c++ {
			if m.At(r, c) {
				words[r*l.RowGroupSize+c/ColumnsPerWord] |= LaneBit(c % ColumnsPerWord)
			}
		}
	}
	return words, nil
}

// Decode unpacks pattern words into a mask.
func (l Layout) Decode(words []uint32) (*pattern.Mask, error) {
	if len(words) < l.Words() {
		return nil, ErrLayout{What: fmt.Sprintf("need %d words, got %d", l.Words(), len(words))}
	}
	m := pattern.NewMask(l.Rows, l.Columns)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Columns; c++ {
			word := words[r*l.RowGroupSize+c/ColumnsPerWord]
			m.Set(r, c, word&LaneBit(c%ColumnsPerWord) != 0)
		}
	}
	return m, nil
}

// PatternBufferWriter writes masks into the standby bank of pattern RAM.
type PatternBufferWriter struct {
	layout    Layout
	banks     *BankSelector
	wordDelay time.Duration
}

func NewPatternBufferWriter(layout Layout, banks *BankSelector, wordDelay time.Duration) *PatternBufferWriter {
	return &PatternBufferWriter{
		layout:    layout,
		banks:     banks,
		wordDelay: wordDelay,
	}
}

func (w *PatternBufferWriter) Layout() Layout {
	return w.layout
}

// Write stores the mask in the standby bank and returns that bank.
func (w *PatternBufferWriter) Write(s *device.Session, m *pattern.Mask) (Bank, error) {
	standby, ok := w.banks.Standby()
	if !ok {
		return 0, ErrNoBank{}
	}
	words, err := w.layout.Encode(m)
	if err != nil {
		return 0, err
	}
	base := standby.Offset()
	for i, word := range words {
		if err := s.Write(base+uint32(4*i), word); err != nil {
			return 0, err
		}
		if w.wordDelay > 0 {
			time.Sleep(w.wordDelay)
		}
	}
	log.Info("Wrote %d pattern words to bank %s", len(words), standby)
	return standby, nil
}

// Readback decodes the mask currently stored in bank.
func (w *PatternBufferWriter) Readback(s *device.Session, bank Bank) (*pattern.Mask, error) {
	words := make([]uint32, w.layout.Words())
	base := bank.Offset()
	for i := range words {
		value, err := s.Read(base + uint32(4*i))
		if err != nil {
			return nil, err
		}
		words[i] = value
	}
	return w.layout.Decode(words)
}
