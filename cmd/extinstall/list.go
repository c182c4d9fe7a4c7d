package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/registry"
)

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ListUse,
		Short: messages.ListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd, root)
			if err != nil {
				return err
			}
			records, err := registry.New(env.paths.RegistryPath).Records()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, messages.ListEmpty)
				return nil
			}
			for _, rec := range records {
				_, _ = fmt.Fprintf(out, messages.ListLineFmt, rec.Type, rec.Name, rec.Version)
			}
			return nil
		},
	}
}
