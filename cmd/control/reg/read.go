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

package reg

import (
	"github.com/spf13/cobra"

	cmdreg "kymeta.com/kdk/go-rcdriver/cmd/reg"
	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewReadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "read [NAME]",
		Short: "Read value from register",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if len(args) > 0 {
				reg, err := apiClient.RegRead(args[0])
				if err != nil {
					return err
				}
				cmdreg.PrintRegs(cmd.OutOrStdout(), []*control.RegHex{reg})
				return nil
			}
			regs, err := apiClient.RegReadAll()
			if err != nil {
				return err
			}
			cmdreg.PrintRegs(cmd.OutOrStdout(), regs)
			return nil
		},
	}
}
