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

package state

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/cmd/reg"
	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the journaled device state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print journaled registers and the last driver snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			regs, snap, err := command.State(cfg)
			if err != nil {
				return err
			}
			PrintSnapshot(cmd.OutOrStdout(), snap)
			reg.PrintRegs(cmd.OutOrStdout(), regs)
			return nil
		},
	})
	return cmd
}

func PrintSnapshot(out io.Writer, snap *control.Snapshot) {
	if snap == nil {
		fmt.Fprintln(out, "No snapshot stored")
		return
	}
	active := "unknown"
	if snap.BankKnown {
		active = snap.Active
	}
	fmt.Fprintf(out, "Device %s open=%t active=%s phase=%s drive=%s pattern=%s\n",
		snap.Device, snap.Open, active, snap.Phase, snap.Drive, snap.Pattern)
	if len(snap.Mask) > 0 {
		fmt.Fprintln(out, strings.Join(snap.Mask, "\n"))
	}
}
