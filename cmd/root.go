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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/cmd/completion"
	"kymeta.com/kdk/go-rcdriver/cmd/config"
	"kymeta.com/kdk/go-rcdriver/cmd/control"
	"kymeta.com/kdk/go-rcdriver/cmd/drive"
	"kymeta.com/kdk/go-rcdriver/cmd/pattern"
	"kymeta.com/kdk/go-rcdriver/cmd/reg"
	"kymeta.com/kdk/go-rcdriver/cmd/state"
	pkgconfig "kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath string
	// subcommands share cfg, it is filled in before any of them runs
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:           "go-rcdriver",
		Short:         "Tool to drive the row/column aperture controller",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := pkgconfig.Load(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(pattern.NewInitCommand(cfg))
	cmd.AddCommand(pattern.NewCommand(cfg))
	cmd.AddCommand(drive.NewCommand(cfg))
	cmd.AddCommand(reg.NewCommand(cfg))
	cmd.AddCommand(state.NewCommand(cfg))
	cmd.AddCommand(control.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, pkgconfig.DefaultConfigPath(), "Config file path")
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
