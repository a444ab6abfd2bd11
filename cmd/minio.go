package cmd

import (
	"fmt"
	"os"

	"whisperli/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO session bucket",
	Long: `List, summarize or prune the objects in the MinIO bucket used by the
minio session store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		if err := storage.InitMinio(cfg); err != nil {
			return err
		}
		bucket := storage.NewBucket(storage.GetMinioClient(), cfg.MinioBucket)
		ctx := cmd.Context()
		prefix := minioPrefix
		if prefix == "" && !minioStats {
			prefix = cfg.MinioPrefix
		}

		switch {
		case minioDelete:
			if minioPrefix == "" {
				return fmt.Errorf("--delete needs an explicit --prefix")
			}
			n, err := bucket.DeleteDirectory(ctx, minioPrefix)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d objects under %s\n", n, minioPrefix)
		case minioRecursive:
			return bucket.PrintTree(ctx, os.Stdout, prefix)
		case minioStats:
			return bucket.PrintStats(ctx, os.Stdout)
		default:
			return bucket.PrintList(ctx, os.Stdout, prefix)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object prefix to list or delete (default MINIO_PREFIX)")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "show bucket statistics")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", false, "show the prefix as a tree")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "delete every object under the prefix")

	minioCmd.Example = `  # list stored sessions
  whisperli minio

  # bucket statistics
  whisperli minio -s

  # tree view of a prefix
  whisperli minio -r -p "sessions/"

  # delete a prefix
  whisperli minio -d -p "sessions/old/"`
}
