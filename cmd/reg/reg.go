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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reg",
		Short: "Read and write device registers directly",
	}
	cmd.AddCommand(NewReadCommand(cfg))
	cmd.AddCommand(NewWriteCommand(cfg))
	return cmd
}

// PrintRegs writes one line per register.
func PrintRegs(out io.Writer, regs []*control.RegHex) {
	for _, reg := range regs {
		fmt.Fprintf(out, "%-32s %s = %s\n", reg.Name, reg.Addr, reg.Value)
	}
}

func NewReadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "read [NAME]",
		Short: "Read one register or all readable registers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			regs, err := command.RegRead(cfg, name)
			if err != nil {
				return err
			}
			PrintRegs(cmd.OutOrStdout(), regs)
			return nil
		},
	}
}

func NewWriteCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "write NAME VALUE",
		Short: "Write value to register",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := control.ParseValue(args[1])
			if err != nil {
				return err
			}
			return command.RegWrite(cfg, args[0], value)
		},
	}
}
