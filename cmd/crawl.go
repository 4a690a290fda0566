package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"sjsage522/bestmuadata/internal/orchestrator"
)

func newCrawlCommand(o *rootOptions) *cobra.Command {
	var (
		opts    orchestrator.FullOptions
		workers int
		delay   float64
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Discover every category, crawl its products and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				o.cfg.Workers = workers
			}
			if cmd.Flags().Changed("delay") {
				o.cfg.Delay = time.Duration(delay * float64(time.Second))
			}

			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			stats, err := orch.FullCrawl(ctx, opts)
			renderCrawlStats(cmd.OutOrStdout(), "Full crawl", stats)
			return err
		},
	}

	cmd.Flags().IntVar(&opts.MaxCategories, "max-categories", 0, "crawl at most N categories (0 = all)")
	cmd.Flags().IntVar(&opts.MaxProductsPerCategory, "max-products", 0, "crawl at most N products per category (0 = all)")
	cmd.Flags().BoolVar(&opts.SkipDetails, "skip-details", false, "store listing data without visiting product pages")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent category workers")
	cmd.Flags().Float64Var(&delay, "delay", 0, "courtesy delay between requests in seconds")
	return cmd
}

func newIncrementalCommand(o *rootOptions) *cobra.Command {
	var sinceDays int

	cmd := &cobra.Command{
		Use:   "incremental",
		Short: "Refresh recently updated products and pick up new ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			stats, err := orch.IncrementalCrawl(ctx, sinceDays)
			renderCrawlStats(cmd.OutOrStdout(), "Incremental crawl", stats)
			return err
		},
	}

	cmd.Flags().IntVar(&sinceDays, "since-days", 1, "refresh products updated within the last N days")
	return cmd
}

func newCrawlCategoryCommand(o *rootOptions) *cobra.Command {
	var maxProducts int

	cmd := &cobra.Command{
		Use:   "crawl-category SLUG",
		Short: "Crawl and export one stored category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			stats, err := orch.CrawlCategory(ctx, args[0], maxProducts)
			if err != nil {
				return err
			}
			renderCrawlStats(cmd.OutOrStdout(), "Category "+args[0], stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxProducts, "max-products", 0, "crawl at most N products (0 = all)")
	return cmd
}
