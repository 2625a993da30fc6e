package main

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"framegrab/config"
)

type commandContext struct {
	configFlag *string

	once   sync.Once
	config config.Config
	logger *logrus.Logger
	err    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensure loads the configuration and builds the logger once per process.
func (c *commandContext) ensure() (config.Config, *logrus.Logger, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.err = err
			return
		}
		logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.logger, c.err
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "framegrab",
		Short:         "Video frame extraction API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd == cmd.Root() {
				return nil
			}
			_, _, err := ctx.ensure()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newFailCommand(ctx))
	rootCmd.AddCommand(newHealthCommand(ctx))

	return rootCmd
}
