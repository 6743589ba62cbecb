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

package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "warning")
	defer Init(os.Stderr, "info")

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warning("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below warning level leaked: %q", out)
	}
	if !strings.Contains(out, WarningPrefix+"warn 3") {
		t.Errorf("missing warning line in %q", out)
	}
	if !strings.Contains(out, ErrorPrefix+"error 4") {
		t.Errorf("missing error line in %q", out)
	}
	if Writer() != &buf {
		t.Errorf("Writer() does not return the configured sink")
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Errorf("expected error for unknown level")
	}
	level, err := ParseLevel("debug")
	if err != nil {
		t.Fatal(err)
	}
	if level != DebugLevel {
		t.Errorf("expected DebugLevel, got %d", level)
	}
}
