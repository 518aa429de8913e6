package main

import (
	"fmt"
	"sort"

	"cryostore/internal/cloud"

	"github.com/spf13/cobra"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Synchronize datasets and raw files with the remote object store",
}

var (
	cloudRaw      bool
	cloudCompress bool
	cloudOutput   string
	cloudDtype    string
	cloudName     string
)

func openCloud(cmd *cobra.Command) (cloud.Store, error) {
	return cloud.NewS3(cmd.Context(), cfg.S3(), mgr, cloud.WithS3Logger(logger))
}

var cloudPushCmd = &cobra.Command{
	Use:   "push <dtype> <name>",
	Short: "Upload a dataset (or raw file with --raw)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCloud(cmd)
		if err != nil {
			return err
		}
		return store.Push(cmd.Context(), args[0], args[1], cloud.PushOptions{Raw: cloudRaw, Compress: cloudCompress})
	},
}

var cloudPullCmd = &cobra.Command{
	Use:   "pull <dtype> <name>",
	Short: "Download and restore a dataset (or raw file with --raw)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCloud(cmd)
		if err != nil {
			return err
		}
		return store.Pull(cmd.Context(), args[0], args[1], cloud.PullOptions{Raw: cloudRaw, Output: cloudOutput})
	},
}

var cloudListCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate remote datasets grouped by dtype",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCloud(cmd)
		if err != nil {
			return err
		}
		items, err := store.List(cmd.Context(), cloud.ListOptions{Name: cloudName, Dtype: cloudDtype, Raw: cloudRaw})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			cmd.Println("Nothing here yet!")
			return nil
		}
		dtypes := make([]string, 0, len(items))
		for dtype := range items {
			dtypes = append(dtypes, dtype)
		}
		sort.Strings(dtypes)
		for _, dtype := range dtypes {
			cmd.Printf("-----%s------\n", dtype)
			for i, name := range items[dtype] {
				cmd.Println(fmt.Sprintf("%d. %s", i+1, name))
			}
		}
		return nil
	},
}

var cloudRemoveCmd = &cobra.Command{
	Use:   "remove <dtype> <name>",
	Short: "Delete a remote dataset (or raw file with --raw)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCloud(cmd)
		if err != nil {
			return err
		}
		return store.Remove(cmd.Context(), args[0], args[1], cloudRaw)
	},
}

func init() {
	for _, c := range []*cobra.Command{cloudPushCmd, cloudPullCmd, cloudListCmd, cloudRemoveCmd} {
		c.Flags().BoolVar(&cloudRaw, "raw", false, "operate on the raw-file area")
	}
	cloudPushCmd.Flags().BoolVar(&cloudCompress, "compress", false, "xz-compress raw uploads")
	cloudPullCmd.Flags().StringVarP(&cloudOutput, "output", "o", "", "local destination path")
	cloudListCmd.Flags().StringVar(&cloudDtype, "dtype", "", "filter by dtype")
	cloudListCmd.Flags().StringVar(&cloudName, "name", "", "filter by name prefix")
	cloudCmd.AddCommand(cloudPushCmd, cloudPullCmd, cloudListCmd, cloudRemoveCmd)
}
