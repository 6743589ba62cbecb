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
	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/cmd/reg"
	"kymeta.com/kdk/go-rcdriver/cmd/state"
	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewStateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print driver status of the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := command.NewApiClient(cfg).State()
			if err != nil {
				return err
			}
			live := &control.Snapshot{Status: resp.Status}
			if resp.Snapshot != nil {
				live.Mask = resp.Snapshot.Mask
			}
			state.PrintSnapshot(cmd.OutOrStdout(), live)
			reg.PrintRegs(cmd.OutOrStdout(), resp.Registers)
			return nil
		},
	}
}
