package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/database"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Create or update the image_urls schema on the configured database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSchemaMigration(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

// migrateCopyCmd 在数据库之间复制记录
var migrateCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy thumbnail records between databases",
	Long: `Copy image_urls records from a source database to a target database.

Examples:
  # Copy from SQLite to PostgreSQL
  image-thumbnailer migrate copy --from-sqlite ./data/thumbnails.db --to-postgres "host=localhost user=postgres password=secret dbname=thumbnails port=5432"

  # Replace records that already exist in the target
  image-thumbnailer migrate copy --from-sqlite ./data/thumbnails.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if err := runCopy(fromSQLite, toPostgres, batchSize, onConflict); err != nil {
			log.Fatalf("Copy failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateCopyCmd)

	migrateCopyCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateCopyCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string")
	migrateCopyCmd.Flags().Int("batch-size", 100, "Batch size for data copy")
	migrateCopyCmd.Flags().String("on-conflict", database.ConflictSkip, "Conflict resolution strategy: skip (default), overwrite, error")
}

// runSchemaMigration 对配置中的数据库执行自动迁移
func runSchemaMigration() error {
	config.InitConfig()
	cfg := config.Get()

	provider, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	return database.AutoMigrate(provider)
}

// runCopy 执行记录复制
func runCopy(fromSQLite, toPostgres string, batchSize int, onConflict string) error {
	if fromSQLite == "" || toPostgres == "" {
		return fmt.Errorf("both --from-sqlite and --to-postgres are required")
	}

	log.Printf("Source: %s", fromSQLite)
	log.Printf("Target: %s", maskDSN(toPostgres))
	log.Printf("Conflict strategy: %s", onConflict)

	source, err := database.NewGormProviderWithDialector(sqlite.Open(fromSQLite), "sqlite")
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer source.Close()

	target, err := database.NewGormProviderWithDialector(postgres.Open(toPostgres), "postgres")
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer target.Close()

	if err := database.AutoMigrate(target); err != nil {
		return err
	}

	stats, err := database.CopyImageURLs(context.Background(), source.DB(), target.DB(), batchSize, onConflict)
	if stats != nil {
		log.Printf("Copied %d records (skipped: %d, overwritten: %d)", stats.Copied, stats.Skipped, stats.Overwritten)
	}
	return err
}

// maskDSN 隐藏连接串中的密码
func maskDSN(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
