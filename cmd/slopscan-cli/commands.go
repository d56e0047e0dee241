package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/harshakrishna15/SlopScan/internal/app"
	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/embedding"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
	"github.com/harshakrishna15/SlopScan/pkg/slopscan"
)

func newIdentifyCmd(c *cli) *cobra.Command {
	var (
		guesses []string
		brand   string
	)

	cmd := &cobra.Command{
		Use:   "identify [image]",
		Short: "Identify a product from a photo or from text guesses",
		Example: `  slopscan identify can.jpg
  slopscan identify --guess "Coca-Cola Original Taste" --guess "Coke 12 fl oz" --brand Coca-Cola`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(guesses) == 0 {
				return fmt.Errorf("pass an image path or at least one --guess")
			}
			if len(args) == 1 && len(guesses) > 0 {
				return fmt.Errorf("pass either an image path or --guess, not both")
			}

			ctx := cmd.Context()
			b, err := c.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			var res *slopscan.IdentifyResponse
			if len(args) == 1 {
				image, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				stop := c.ui.Spinner("Identifying " + filepath.Base(args[0]))
				res, err = b.Identify(ctx, filepath.Base(args[0]), image)
				stop()
				if err != nil {
					return err
				}
			} else {
				res, err = b.IdentifyGuesses(ctx, guesses, brand)
				if err != nil {
					return err
				}
			}

			if c.outputJSON {
				return c.printJSON(res)
			}
			c.renderIdentify(res)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&guesses, "guess", "g", nil, "product name guess (repeatable); skips photo recognition")
	cmd.Flags().StringVar(&brand, "brand", "", "brand seen on the packaging, used with --guess")
	return cmd
}

func newProductCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "product <code>",
		Short: "Show one catalog product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			p, err := b.Product(ctx, args[0])
			if err != nil {
				return err
			}

			if c.outputJSON {
				return c.printJSON(p)
			}
			c.ui.Section(p.Name)
			c.ui.KeyValue("Code", p.Code)
			c.ui.KeyValue("Brands", p.Brands)
			c.ui.KeyValue("Categories", p.Categories)
			c.ui.KeyValue("Ecoscore", GradeColor(p.EcoscoreGrade))
			if p.ImageURL != "" {
				c.ui.KeyValue("Image", p.ImageURL)
			}
			return nil
		},
	}
}

func newRecommendCmd(c *cli) *cobra.Command {
	var src slopscan.Source

	cmd := &cobra.Command{
		Use:   "recommend [code]",
		Short: "Suggest greener alternatives to a catalog product or a described one",
		Example: `  slopscan recommend dummy-coke
  slopscan recommend --name "Coca-Cola Original Taste" --brands Coca-Cola --categories "Beverages, Sodas"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && strings.TrimSpace(src.Name) == "" {
				return fmt.Errorf("pass a product code or --name")
			}

			ctx := cmd.Context()
			b, err := c.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			var alts []slopscan.Product
			if len(args) == 1 {
				alts, err = b.Recommend(ctx, args[0])
			} else {
				alts, err = b.RecommendFromSource(ctx, src)
			}
			if err != nil {
				return err
			}

			if c.outputJSON {
				return c.printJSON(alts)
			}
			if len(alts) == 0 {
				c.ui.Warning("No greener alternatives found")
				return nil
			}
			c.ui.Section("Alternatives")
			c.productTable(alts, false)
			return nil
		},
	}

	cmd.Flags().StringVar(&src.Name, "name", "", "product name of the source")
	cmd.Flags().StringVar(&src.Brands, "brands", "", "brands of the source")
	cmd.Flags().StringVar(&src.Categories, "categories", "", "categories of the source")
	cmd.Flags().StringVar(&src.Code, "code", "", "catalog code of the source, excluded from results")
	return cmd
}

func newSeedCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products into the catalog (demo products by default)",
		Long: `Embeds each product name and upserts it into the configured vector store.
--file takes a JSON array of product payloads (product_code, product_name,
brands, categories, ecoscore_grade and any extra fields).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.serverURL != "" {
				return fmt.Errorf("seed: %w", errRemoteUnsupported)
			}

			products := vectorstore.DemoProducts()
			if file != "" {
				var err error
				if products, err = readProducts(file); err != nil {
					return err
				}
			}

			cfg := *c.cfg
			cfg.Vector.SeedIfEmpty = false

			ctx := cmd.Context()
			a, err := app.New(ctx, &cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := seed(ctx, c.ui, a, products)
			if err != nil {
				return err
			}
			c.ui.Success("Seeded %d products (catalog now holds %d)", len(products), n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with product payloads")
	return cmd
}

func seed(ctx context.Context, ui *UI, a *app.App, products []catalog.Product) (int64, error) {
	bar := ui.ProgressBar(len(products), "Seeding")
	emb := batchEmbedder{Embedder: a.Embedder, size: a.Config.Embedding.BatchSize}

	err := vectorstore.Load(ctx, a.Store, emb, products, func(done int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return 0, err
	}
	_ = bar.Finish()

	if err := a.RecordEmbedding(ctx); err != nil {
		return 0, err
	}
	return a.Store.Count(ctx)
}

// batchEmbedder splits large embed calls into provider-sized batches.
type batchEmbedder struct {
	embedding.Embedder
	size int
}

func (b batchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedding.EmbedBatch(ctx, b.Embedder, texts, b.size)
}

func readProducts(path string) ([]catalog.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}

	for i, p := range products {
		if strings.TrimSpace(p.Code) == "" {
			return nil, fmt.Errorf("product %d has no product_code", i)
		}
	}
	return products, nil
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and backend status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			stats, err := b.Stats(ctx)
			if err != nil {
				return err
			}

			if c.outputJSON {
				m := make(map[string]string, len(stats))
				for _, kv := range stats {
					m[kv[0]] = kv[1]
				}
				return c.printJSON(m)
			}
			c.ui.Section("SlopScan")
			for _, kv := range stats {
				c.ui.KeyValue(kv[0], kv[1])
			}
			return nil
		},
	}
}

func (c *cli) renderIdentify(res *slopscan.IdentifyResponse) {
	c.ui.Section("Identify")
	if len(res.Guesses) > 0 {
		c.ui.KeyValue("Guesses", strings.Join(res.Guesses, " | "))
	}
	if res.Brand != "" {
		c.ui.KeyValue("Brand", res.Brand)
	}
	if res.FrontText != "" {
		c.ui.KeyValue("Front text", truncateText(res.FrontText, 80))
	}

	switch bm := res.BestMatch; {
	case bm == nil:
		c.ui.Warning("No match found")
	case res.NeedsConfirmation:
		c.ui.Warning("Best guess %s (%s), confidence %.2f; please confirm", bm.Name, bm.Code, bm.Confidence)
	default:
		c.ui.Success("%s (%s), confidence %.2f, ecoscore %s", bm.Name, bm.Code, bm.Confidence, GradeColor(bm.EcoscoreGrade))
	}

	if len(res.Candidates) > 0 {
		fmt.Fprintln(c.out)
		c.productTable(res.Candidates, true)
	}
}

func (c *cli) productTable(products []slopscan.Product, withConfidence bool) {
	headers := []string{"#", "Code", "Name", "Brands", "Eco"}
	if withConfidence {
		headers = append(headers, "Confidence")
	}

	rows := make([][]string, len(products))
	for i, p := range products {
		row := []string{
			fmt.Sprintf("%d", i+1),
			p.Code,
			truncateText(p.Name, 40),
			truncateText(p.Brands, 24),
			GradeColor(p.EcoscoreGrade),
		}
		if withConfidence {
			row = append(row, fmt.Sprintf("%.3f", p.Confidence))
		}
		rows[i] = row
	}
	c.ui.Table(headers, rows)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
