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

package pattern

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kymeta.com/kdk/go-rcdriver/pkg/command"
	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

const (
	FileOptionName = "file"
)

// FromArgs builds a pattern from a kind name and an optional bitmap file.
func FromArgs(kindName, file string) (pattern.Pattern, error) {
	kind, err := pattern.ParseKind(kindName)
	if err != nil {
		return pattern.Pattern{}, err
	}
	p := pattern.Pattern{Kind: kind}
	if kind == pattern.Custom {
		if file == "" {
			return p, fmt.Errorf("custom pattern needs --%s", FileOptionName)
		}
		if p.Bitmap, err = pattern.LoadBitmap(file); err != nil {
			return p, err
		}
	}
	return p, nil
}

func hold(cfg *config.Config, p pattern.Pattern) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return command.Run(ctx, cfg, p)
}

func NewCommand(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:       "pattern all-on|all-off|checkerboard|custom",
		Short:     "Initialize the device and drive a pattern until interrupted",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"all-on", "all-off", "checkerboard", "custom"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := FromArgs(args[0], file)
			if err != nil {
				return err
			}
			return hold(cfg, p)
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "Bitmap file for the custom pattern")
	return cmd
}

// NewInitCommand brings the device up with every cell off.
func NewInitCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the device, drive the all-off pattern until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return hold(cfg, pattern.Pattern{Kind: pattern.AllOff})
		},
	}
}
