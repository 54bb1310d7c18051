package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"luxury-leads-backend/internal/store"
)

func newAgencyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agency",
		Short: "Manage agencies",
	}

	var name, prompt, assistantName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an agency and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("--name and --prompt are required")
			}
			st, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			id, err := st.CreateAgency(cmd.Context(), store.Agency{
				Name:          strings.TrimSpace(name),
				Prompt:        strings.TrimSpace(prompt),
				AssistantName: strings.TrimSpace(assistantName),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "agency display name")
	create.Flags().StringVar(&prompt, "prompt", "", "system prompt used for every reply")
	create.Flags().StringVar(&assistantName, "assistant", "", "assistant label shown in the widget")

	cmd.AddCommand(create)
	return cmd
}
