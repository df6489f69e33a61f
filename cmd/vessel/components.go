package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vessel/internal/registry"
)

func componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the built-in components",
		Long:  `List the built-in components with their public properties, events and styles.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tPROPERTIES\tEVENTS\tSTYLE")
			for _, d := range registry.Descriptors() {
				var attrs, events []string
				for _, m := range d.Members {
					if m.Kind.Public() && m.Attr != "-" && m.Set != nil {
						attrs = append(attrs, m.Name)
					}
				}
				for _, e := range d.Events {
					events = append(events, e.Name)
				}
				sort.Strings(attrs)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Tag, orDash(attrs), orDash(events), orDash([]string{d.StyleID("")}))
			}
			return w.Flush()
		},
	}
}

func orDash(items []string) string {
	s := strings.Join(items, ", ")
	if strings.Trim(s, ", ") == "" {
		return "-"
	}
	return s
}
