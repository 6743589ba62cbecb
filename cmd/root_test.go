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

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	data := fmt.Sprintf(`device:
  backend: sim
aperture:
  rows: 4
  columns: 4
  rowGroupSize: 1
dbPath: %s
`, filepath.Join(dir, "state.db"))
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRegWriteThenStateShow(t *testing.T) {
	path := writeConfig(t)

	if _, err := execute(t, "--config", path, "reg", "write", "sck_match_val", "0x3"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--config", path, "reg", "read", "sck_match_val")
	if err != nil {
		t.Fatal(err)
	}
	// every run maps a fresh simulated device
	if !strings.Contains(out, "sck_match_val") {
		t.Errorf("unexpected output %q", out)
	}
	out, err = execute(t, "--config", path, "state", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No snapshot stored") || !strings.Contains(out, "0x00000003") {
		t.Errorf("unexpected state output %q", out)
	}
}

func TestRegWriteRejectsReadOnly(t *testing.T) {
	path := writeConfig(t)
	if _, err := execute(t, "--config", path, "reg", "write", "version", "1"); err == nil {
		t.Errorf("expected error writing version")
	}
	if _, err := execute(t, "--config", path, "reg", "write", "ctrl_reg", "nope"); err == nil {
		t.Errorf("expected error for bad value")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config")
	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Errorf("expected error when config exists")
	}
	if _, err := execute(t, "--config", path, "config", "init", "--overwrite"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "rowGroupSize: 10") {
		t.Errorf("unexpected config %q", out)
	}
}
