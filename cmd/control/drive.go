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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
)

func NewDriveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:       "drive on|off",
		Short:     "Enable/disable continuous drive",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return errors.New("Wrong drive command. Must be one of on/off")
			}
			status, err := apiClient.Drive(enabled)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Continuous drive %s\n", status.Drive)
			return nil
		},
	}
}
