package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

var (
	ingestTitle    string
	ingestURL      string
	ingestCategory string
	ingestSourceID string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a text file into the index",
	Long: `Reads a plain text or markdown file, splits it into chunks, embeds
them and stores the vectors. Re-ingesting the same source id replaces
its previous chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceID, "id", "", "source id (default: derived from filename)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "source title (default: filename)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "source URL")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "file", "source category")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sourceID := ingestSourceID
	if sourceID == "" {
		sourceID = strings.ReplaceAll(strings.ToLower(base), " ", "-")
	}
	title := ingestTitle
	if title == "" {
		title = base
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.ingestor.Ingest(cmd.Context(), sourceID, string(data), domain.SourceMeta{
		Title:    title,
		URL:      ingestURL,
		Category: ingestCategory,
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	cmd.Printf("Ingested %s as %s (%d chunks)\n", path, report.SourceID, report.ChunkCount)
	return nil
}
