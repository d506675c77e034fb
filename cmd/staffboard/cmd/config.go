package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/config"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	configCmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(o))
	return configCmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .staffboard.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := config.WriteDefault(path, force)
			if errors.Is(err, config.ErrConfigExists) {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&path, "path", config.ProjectConfigFile, "file to write")
	return initCmd
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := config.NewLoaderWithViper(o.v)
			if o.cfgFile != "" {
				loader.WithConfigFile(o.cfgFile)
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			out, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
