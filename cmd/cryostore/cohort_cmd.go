package main

import (
	"fmt"
	"strings"

	"cryostore/internal/cohort"
	"cryostore/pkg/domain"

	"github.com/spf13/cobra"
)

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Inspect and mutate cohort catalogs",
}

var (
	addMetadata []string
	addFiles    []string
	aliasMinLen int
)

func openCohort(cmd *cobra.Command, name string) (*cohort.Cohort, error) {
	return cohort.New(cmd.Context(), name, mgr, nil, cohort.WithLogger(logger))
}

var cohortAddCmd = &cobra.Command{
	Use:   "add <cohort> <accession>",
	Short: "Add an accession with optional metadata and files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		metadata := make(map[string]string, len(addMetadata))
		for _, kv := range addMetadata {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("metadata %q is not key=value", kv)
			}
			metadata[k] = v
		}
		acc := domain.NewAccession(args[1], addFiles, metadata)
		stored, err := c.Add(cmd.Context(), acc)
		if err != nil {
			return err
		}
		cmd.Println(stored)
		return nil
	},
}

var cohortGetCmd = &cobra.Command{
	Use:   "get <cohort> <identifier>",
	Short: "Show one accession by name, alias or AID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		acc, err := c.Get(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		cmd.Println(acc)
		return nil
	},
}

var cohortDeleteCmd = &cobra.Command{
	Use:   "delete <cohort> <identifier>",
	Short: "Delete an accession and its metadata and file links",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		return c.Delete(cmd.Context(), args[1])
	},
}

var cohortListCmd = &cobra.Command{
	Use:   "list <cohort>",
	Short: "List every accession in a cohort",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		accs, err := c.Accessions(cmd.Context())
		if err != nil {
			return err
		}
		for _, acc := range accs {
			cmd.Println(acc)
		}
		return nil
	},
}

var cohortSearchCmd = &cobra.Command{
	Use:   "search <cohort> <substring>",
	Short: "Search names and aliases by substring",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		hits, err := c.Search(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		for _, hit := range hits {
			cmd.Println(hit)
		}
		return nil
	},
}

var cohortAliasCmd = &cobra.Command{
	Use:   "alias <cohort> <metadata-column>",
	Short: "Promote a metadata column's values to aliases",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		accepted, err := c.AliasColumn(cmd.Context(), args[1], aliasMinLen)
		if err != nil {
			return err
		}
		cmd.Printf("assigned %d aliases\n", len(accepted))
		return nil
	},
}

func init() {
	cohortAddCmd.Flags().StringArrayVarP(&addMetadata, "meta", "m", nil, "metadata entry key=value (repeatable)")
	cohortAddCmd.Flags().StringArrayVarP(&addFiles, "file", "f", nil, "associated file path (repeatable)")
	cohortAliasCmd.Flags().IntVar(&aliasMinLen, "min-length", 3, "minimum alias length")
	cohortCmd.AddCommand(cohortAddCmd, cohortGetCmd, cohortDeleteCmd, cohortListCmd, cohortSearchCmd, cohortAliasCmd)
}
