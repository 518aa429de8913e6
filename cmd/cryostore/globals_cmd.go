package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var globalsCmd = &cobra.Command{
	Use:   "globals",
	Short: "Read and write a cohort's typed key/value store",
}

var globalsGetCmd = &cobra.Command{
	Use:   "get <cohort> <key>",
	Short: "Read one global",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		val, err := c.Globals().Get(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		cmd.Println(val)
		return nil
	},
}

var globalsSetCmd = &cobra.Command{
	Use:   "set <cohort> <key> <value>",
	Short: "Write one global, inferring int, float or str",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCohort(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		var val any = args[2]
		if n, err := strconv.ParseInt(args[2], 10, 64); err == nil {
			val = n
		} else if f, err := strconv.ParseFloat(args[2], 64); err == nil {
			val = f
		}
		return c.Globals().Set(cmd.Context(), args[1], val)
	},
}

func init() {
	globalsCmd.AddCommand(globalsGetCmd, globalsSetCmd)
}
