package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comptadoc/src/core/document"
	"comptadoc/src/infrastructure/integrations/insight"
	"comptadoc/src/storage/postgres/documentctrl"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Backfill missing document embeddings",
	Long: `The reembed command finds processed documents without an embedding and
re-embeds their stored text excerpt through the insight service.`,
	RunE: runReembed,
}

func init() {
	rootCmd.AddCommand(reembedCmd)
	settingDefaultConfig()
}

func runReembed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openDB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	documentStore, err := documentctrl.NewService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %v", err)
	}

	insightClient := insight.NewClient(
		viper.GetString("insight.url"),
		&http.Client{Timeout: 30 * time.Second},
	)

	docs, _, err := documentStore.FindVisible(ctx, nil, document.Filter{}, document.Sort{}, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list documents: %v", err)
	}

	var pending []document.Document
	for _, d := range docs {
		if d.IsProcessed && !d.HasEmbedding() && d.TextExcerpt != "" {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		log.Println("No documents need re-embedding")
		return nil
	}

	bar := progressbar.Default(int64(len(pending)), "re-embedding")
	var failed int
	for i := range pending {
		d := &pending[i]
		vec, err := insightClient.Embed(ctx, d.TextExcerpt)
		if err != nil {
			log.Printf("Failed to embed document %s: %v", d.ID, err)
			failed++
			bar.Add(1)
			continue
		}
		if err := d.SetEmbedding(vec); err != nil {
			log.Printf("Rejected embedding for document %s: %v", d.ID, err)
			failed++
			bar.Add(1)
			continue
		}
		if err := documentStore.Save(ctx, d); err != nil {
			log.Printf("Failed to save document %s: %v", d.ID, err)
			failed++
		}
		bar.Add(1)
	}

	log.Printf("Re-embedded %d documents, %d failures", len(pending)-failed, failed)
	return nil
}
