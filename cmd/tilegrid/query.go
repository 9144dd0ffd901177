package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/editor"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/viz"
	"github.com/spf13/cobra"
)

var queryFlags struct {
	name   string
	sql    string
	params []string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Manage saved queries",
}

func init() {
	queryCmd.AddCommand(queryCreateCmd)
	queryCmd.AddCommand(queryShowCmd)
	queryCmd.AddCommand(queryEditCmd)

	queryCreateCmd.Flags().StringVarP(&queryFlags.name, "name", "n", "", "Query name")
	queryCreateCmd.Flags().StringVarP(&queryFlags.sql, "sql", "s", "", "SQL text, with {{ name }} placeholders (required)")
	queryCreateCmd.Flags().StringArrayVarP(&queryFlags.params, "param", "p", nil, "Parameter as name[:text|number][=default] (repeatable)")
}

var queryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save a new query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(queryFlags.sql) == "" {
			return fmt.Errorf("sql is required (--sql)")
		}
		defs, err := parseParameters(queryFlags.params)
		if err != nil {
			return err
		}

		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		q, err := orch.Store().QueryCreate(orch.Context(), store.QueryCreateParams{
			Name:       queryFlags.name,
			SQL:        queryFlags.sql,
			Parameters: defs,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"id":         q.ID,
			"name":       q.Name,
			"parameters": q.Parameters,
		})
	},
}

var queryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a query with highlighted SQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		q, err := orch.Store().Query(orch.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, revision %d)\n", q.Name, q.ID, q.Revision)
		for _, p := range q.Parameters {
			line := fmt.Sprintf("  {{ %s }} %s", p.Name, p.Type)
			if p.Default != "" {
				line += " = " + p.Default
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.HighlightSQL(q.SQL, ""))
		return nil
	},
}

var queryEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a query's SQL in $EDITOR",
	Long: `Open the SQL of a query in $EDITOR and save the result as a new
revision. Widgets showing the query refresh in any open dashboard.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		ctx := orch.Context()
		q, err := orch.Store().Query(ctx, args[0])
		if err != nil {
			return err
		}

		edited, err := editText(q.SQL)
		if err != nil {
			return err
		}
		if strings.TrimSpace(edited) == strings.TrimSpace(q.SQL) {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
			return nil
		}

		q, err = orch.Store().QueryRevise(ctx, q.ID, edited)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"id":       q.ID,
			"revision": q.Revision,
		})
	},
}

// editText opens content in the user's editor and returns the saved text.
func editText(content string) (string, error) {
	tmpfile, err := os.CreateTemp("", "tilegrid_query_*.sql")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.WriteString(content); err != nil {
		_ = tmpfile.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	_ = tmpfile.Close()

	c, err := editor.Command("tilegrid", tmpfile.Name())
	if err != nil {
		return "", fmt.Errorf("opening editor: %w", err)
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}

	data, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		return "", fmt.Errorf("reading edited query: %w", err)
	}
	return string(data), nil
}

func parseParameters(values []string) ([]query.Parameter, error) {
	defs := make([]query.Parameter, 0, len(values))
	for _, s := range values {
		p, err := query.ParseParameter(s)
		if err != nil {
			return nil, err
		}
		defs = append(defs, p)
	}
	return defs, nil
}
