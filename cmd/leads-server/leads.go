package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLeadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect captured leads",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list AGENCY_ID",
		Short: "List the leads captured for an agency, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agencyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agency id %q", args[0])
			}
			st, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			captured, err := st.ListLeads(cmd.Context(), agencyID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(captured)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCAPTURED\tEMAIL\tPHONE\tMESSAGE")
			for _, l := range captured {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.CreatedAt.Format("2006-01-02 15:04"), dash(l.Email), dash(l.Phone), l.Message)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(list)
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
