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

package drive

import (
	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Control continuous drive of a device nobody else holds",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "off",
		Short: "Disable continuous drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.DriveOff(cfg)
		},
	})
	return cmd
}
