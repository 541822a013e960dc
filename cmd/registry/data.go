package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of every registered model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// services migrates on open
			_, closeDB, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			closeDB()
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yml>...",
		Short: "Load YAML fixtures: pages and records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, closeDB, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			ids, err := sm.Fixtures.LoadFiles(cmd.Context(), args...)
			if err != nil {
				return err
			}
			a.log.Info("fixtures loaded", zap.Int("records", len(ids)))
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d fixtures\n", len(ids))
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <model> <file.csv>",
		Short: "Import records of a model from CSV (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			sm, closeDB, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := sm.Import.Import(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, skipped %d\n", res.Imported, res.Skipped)
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  "+msg)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		queries []string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export <segment>",
		Short: "Write a registry page's records as CSV",
		Example: `  registry export contact-search --query FirstName=Alex --query Sort=Surname
  registry export contact-search -o contacts.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			for _, q := range queries {
				k, v, ok := strings.Cut(q, "=")
				if !ok {
					return fmt.Errorf("--query %q: want key=value", q)
				}
				params.Add(k, v)
			}

			sm, closeDB, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			page, err := sm.Pages.GetBySegment(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var n int
			export := func(w io.Writer) (err error) {
				n, err = sm.Registry.Export(cmd.Context(), page, params, w)
				return err
			}
			if output == "" {
				err = export(cmd.OutOrStdout())
			} else {
				var f *os.File
				if f, err = os.Create(output); err != nil {
					return err
				}
				err = writeAndClose(f, export)
			}
			if err != nil {
				return err
			}
			a.log.Info("export written", zap.String("page", page.URLSegment), zap.Int("records", n))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "filter or sort parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// writeAndClose runs write against wc and closes it, returning the close
// error when the write succeeded
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()
	return write(wc)
}
