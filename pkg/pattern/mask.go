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

package pattern

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mask is a rows x columns on/off grid, row major.
type Mask struct {
	Rows    int
	Columns int
	cells   []bool
}

func NewMask(rows, columns int) *Mask {
	return &Mask{
		Rows:    rows,
		Columns: columns,
		cells:   make([]bool, rows*columns),
	}
}

func (m *Mask) At(r, c int) bool {
	return m.cells[r*m.Columns+c]
}

func (m *Mask) Set(r, c int, on bool) {
	m.cells[r*m.Columns+c] = on
}

func (m *Mask) Fill(on bool) {
	for i := range m.cells {
		m.cells[i] = on
	}
}

// Count returns the number of cells that are on.
func (m *Mask) Count() int {
	n := 0
	for _, on := range m.cells {
		if on {
			n++
		}
	}
	return n
}

func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Rows != o.Rows || m.Columns != o.Columns {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Lines renders each row as a string of '1' and '0'.
func (m *Mask) Lines() []string {
	lines := make([]string, m.Rows)
	var b strings.Builder
	for r := 0; r < m.Rows; r++ {
		b.Reset()
		for c := 0; c < m.Columns; c++ {
			if m.At(r, c) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		lines[r] = b.String()
	}
	return lines
}

func (m *Mask) String() string {
	return strings.Join(m.Lines(), "\n")
}

type bitmap struct {
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Cells   []string `json:"cells"`
}

func (m *Mask) MarshalJSON() ([]byte, error) {
	return json.Marshal(bitmap{Rows: m.Rows, Columns: m.Columns, Cells: m.Lines()})
}

func (m *Mask) UnmarshalJSON(data []byte) error {
	var b bitmap
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if b.Rows <= 0 || b.Columns <= 0 {
		return ErrInvalidPattern{What: fmt.Sprintf("bitmap dimensions %dx%d", b.Rows, b.Columns)}
	}
	if len(b.Cells) != b.Rows {
		return ErrInvalidPattern{What: fmt.Sprintf("bitmap declares %d rows, has %d", b.Rows, len(b.Cells))}
	}
	parsed := NewMask(b.Rows, b.Columns)
	for r, line := range b.Cells {
		if len(line) != b.Columns {
			return ErrInvalidPattern{What: fmt.Sprintf("bitmap row %d has %d columns, want %d", r, len(line), b.Columns)}
		}
		for c, ch := range line {
			switch ch {
			case '1':
				parsed.Set(r, c, true)
			case '0':
			default:
				return ErrInvalidPattern{What: fmt.Sprintf("bitmap row %d column %d: unexpected %q", r, c, ch)}
			}
		}
	}
	*m = *parsed
	return nil
}
