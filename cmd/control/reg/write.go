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

	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewWriteCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "write NAME VALUE",
		Short: "Write value to register",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := control.ParseValue(args[1]); err != nil {
				return err
			}
			return command.NewApiClient(cfg).RegWrite(args[0], args[1])
		},
	}
}
