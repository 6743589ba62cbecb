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

	"kymeta.com/kdk/go-rcdriver/cmd/control/reg"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Run the control server or talk to a running one",
	}
	cmd.AddCommand(NewStartCommand(cfg))
	cmd.AddCommand(NewPatternCommand(cfg))
	cmd.AddCommand(NewDriveCommand(cfg))
	cmd.AddCommand(NewStateCommand(cfg))
	cmd.AddCommand(reg.NewCommand(cfg))
	return cmd
}
