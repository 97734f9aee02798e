package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/client/screens"
	"github.com/bryanwahyu/automaton-diag/internal/client/sheets"
)

// userError turns a client error into its operator message. Cancelled
// requests are not errors for the CLI.
func userError(err error) error {
	if err == nil || client.IsKind(err, client.KindCancelled) {
		return nil
	}
	return errors.New(client.UserMessage(err))
}

func newListCmd(g *globals) *cobra.Command {
	var (
		page    int
		filters []string
	)
	cmd := &cobra.Command{
		Use:       "list <screen>",
		Short:     "Show one page of a screen",
		Args:      cobra.ExactArgs(1),
		ValidArgs: screens.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			s, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Load(cmd.Context(), page, f); err != nil {
				return userError(err)
			}
			return renderScreen(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value, repeatable")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var (
		page    int
		filters []string
		outDir  string
	)
	cmd := &cobra.Command{
		Use:   "export <screen>",
		Short: "Download a screen as a spreadsheet",
		Long:  "Export writes the loaded page, or every matching row on screens configured for it, into --out.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			s, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Load(cmd.Context(), page, f); err != nil {
				return userError(err)
			}
			a, err := s.Export(cmd.Context())
			if err != nil {
				return userError(err)
			}
			path, err := sheets.DirDownloader{Dir: outDir}.Save(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved "+path))
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value, repeatable")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <screen> <file>",
		Short: "Bulk-import a spreadsheet into a screen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := sheets.OpenFile(args[1])
			if err != nil {
				return err
			}

			if err := s.SelectFile(f); err != nil {
				return userError(err)
			}
			_, err = s.Import(cmd.Context())
			renderUpload(cmd.OutOrStdout(), s.Status())
			return userError(err)
		},
	}
}
