package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/importguard"
)

var (
	flagCategory   string
	flagExtensions bool
)

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List the dangerous-pattern rules, or the known asset types",
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagCategory, "category", "", "Filter by category")
	listRulesCmd.Flags().BoolVar(&flagExtensions, "extensions", false, "List known asset types instead of rules")
	rootCmd.AddCommand(listRulesCmd)
}

func policyOptions() []importguard.Option {
	if flagPolicy == "" {
		return nil
	}
	return []importguard.Option{importguard.WithPolicyFile(flagPolicy)}
}

func runListRules(cmd *cobra.Command, args []string) error {
	if err := importguard.ValidatePolicy(policyOptions()...); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	jsonOut := strings.ToLower(flagFormat) == "json"

	if flagExtensions {
		exts := importguard.ListExtensions(policyOptions()...)
		if jsonOut {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(exts)
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "EXTENSION\tKIND\n")
		fmt.Fprintf(tw, "---------\t----\n")
		for _, e := range exts {
			fmt.Fprintf(tw, "%s\t%s\n", e.Ext, e.Kind)
		}
		tw.Flush()
		fmt.Fprintf(w, "\n%d asset types known\n", len(exts))
		return nil
	}

	opts := policyOptions()
	if flagCategory != "" {
		opts = append(opts, importguard.WithCategory(flagCategory))
	}
	infos := importguard.ListRules(opts...)

	if jsonOut {
		if infos == nil {
			infos = []importguard.RuleInfo{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tCATEGORY\tPATTERN\n")
	fmt.Fprintf(tw, "--\t----\t--------\t-------\n")
	for _, r := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, r.Value)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d rules loaded\n", len(infos))

	return nil
}
