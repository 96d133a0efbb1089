package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/infrastructure/storage"
)

func newListCommand(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored articles, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := storage.Open(cmd.Context(), c.cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()

			articles, err := repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(articles) > limit {
				articles = articles[:limit]
			}

			renderArticles(cmd, articles)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to print (0 = all)")
	return cmd
}

func renderArticles(cmd *cobra.Command, articles []domain.StoredArticle) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Stored", "Source", "Published", "Title", "URL"})
	for _, a := range articles {
		t.AppendRow(table.Row{a.ID, a.CreatedAt.Format(time.DateTime), a.Source, a.PublishedAt, a.Title, a.URL})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d shown", len(articles)), ""})
	t.Render()
}

func newVerifyCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check storage connectivity and report the article count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := storage.Open(cmd.Context(), c.cfg.Database)
			if err != nil {
				return fmt.Errorf("storage unreachable: %w", err)
			}
			defer repo.Close()

			n, err := repo.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count articles: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "storage ok (driver=%s): %d articles\n", c.cfg.Database.Driver, n)
			return nil
		},
	}
}

func newSitesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "Show the configured site registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Listing URL", "Link selector", "Date rule", "Readability"})
			for _, s := range c.cfg.Sites {
				rule := s.DateRule
				if rule == "" {
					rule = domain.DateRulePassthrough
				}
				t.AppendRow(table.Row{s.Name, s.URL, s.LinkSelector, rule, s.Readability})
			}
			t.Render()
			return nil
		},
	}
}
