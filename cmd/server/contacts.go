package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge a JSON array of contacts into the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := commandContext(cmd)
			if timeout := a.cfg.Contacts.ImportTimeout; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			result, err := a.contacts.Import(ctx, rows)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all contacts as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			contacts, err := a.contacts.List(commandContext(cmd))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return writeJSON(cmd.OutOrStdout(), contacts)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := writeJSON(f, contacts); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout).")
	return cmd
}

func newWipeCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.contacts.DeleteAll(commandContext(cmd)); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "all contacts deleted")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion.")
	return cmd
}

func readRows(path string) ([]contact.CreateRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var rows []contact.CreateRequest
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
