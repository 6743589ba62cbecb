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
	"fmt"

	"github.com/spf13/cobra"

	cmdpattern "kymeta.com/kdk/go-rcdriver/cmd/pattern"
	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewPatternCommand(cfg *config.Config) *cobra.Command {
	var file, readback string
	cmd := &cobra.Command{
		Use:       "pattern [all-on|all-off|checkerboard|custom]",
		Short:     "Commit a pattern or read back a bank",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all-on", "all-off", "checkerboard", "custom"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if readback != "" {
				mask, err := apiClient.Readback(readback)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mask.String())
				return nil
			}
			if len(args) == 0 {
				return cmd.Usage()
			}
			p, err := cmdpattern.FromArgs(args[0], file)
			if err != nil {
				return err
			}
			status, err := apiClient.Pattern(&control.PatternSetup{Pattern: p.Kind.String(), Bitmap: p.Bitmap})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pattern %s active in bank %s\n", status.Pattern, status.Active)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, cmdpattern.FileOptionName, "", "Bitmap file for the custom pattern")
	cmd.Flags().StringVar(&readback, "readback", "", "Decode the mask stored in bank A or B")
	return cmd
}
