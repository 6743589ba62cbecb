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
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

type Kind int

const (
	AllOn Kind = iota
	AllOff
	Checkerboard
	Custom
)

var kindNames = map[Kind]string{
	AllOn:        "all-on",
	AllOff:       "all-off",
	Checkerboard: "checkerboard",
	Custom:       "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, ErrInvalidPattern{What: fmt.Sprintf("unknown pattern %q", name)}
}

// Pattern selects a modulation mask. Bitmap is only used by Custom.
type Pattern struct {
	Kind   Kind
	Bitmap *Mask
}

func (p Pattern) String() string {
	return p.Kind.String()
}

// Build computes the mask for p over a rows x columns aperture.
func Build(p Pattern, rows, columns int) (*Mask, error) {
	if rows <= 0 || columns <= 0 {
		return nil, ErrInvalidPattern{What: fmt.Sprintf("aperture %dx%d is empty", rows, columns)}
	}
	m := NewMask(rows, columns)
	switch p.Kind {
	case AllOn:
		m.Fill(true)
	case AllOff:
	case Checkerboard:
		for r := 0; r < rows; r++ {
			for c := 0; c < columns; c++ {
				m.Set(r, c, (r+c)%2 == 0)
			}
		}
	case Custom:
		if p.Bitmap == nil {
			return nil, ErrInvalidPattern{What: "custom pattern without bitmap"}
		}
		if p.Bitmap.Rows != rows || p.Bitmap.Columns != columns {
			return nil, ErrInvalidPattern{What: fmt.Sprintf("bitmap is %dx%d, aperture is %dx%d",
				p.Bitmap.Rows, p.Bitmap.Columns, rows, columns)}
		}
		copy(m.cells, p.Bitmap.cells)
	default:
		return nil, ErrInvalidPattern{What: fmt.Sprintf("unknown pattern %s", p.Kind)}
	}
	return m, nil
}

// ParseBitmap decodes a YAML or JSON bitmap document.
func ParseBitmap(data []byte) (*Mask, error) {
	m := &Mask{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadBitmap reads a bitmap file such as
//
//	rows: 2
//	columns: 3
//	cells:
//	- "101"
//	- "010"
func LoadBitmap(path string) (*Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseBitmap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
