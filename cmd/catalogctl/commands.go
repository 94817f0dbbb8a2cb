package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glutenvergelijker/backend/internal/domain"
	"github.com/glutenvergelijker/backend/internal/infrastructure/feed"
	"github.com/glutenvergelijker/backend/internal/usecase"
)

type searchOptions struct {
	search        string
	brands        []string
	categories    []string
	stores        []string
	minPrice      float64
	maxPrice      float64
	sort          string
	favoritesOnly bool
	pageSize      int
	page          int
}

func newSearchCmd(build appBuilder, p *printer) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Filter and sort the catalog",
		Example: `  catalogctl search --category Brood --sort price-low
  catalogctl search --search schär --store "Albert Heijn" --max-price 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}
			if opts.minPrice < 0 || (cmd.Flags().Changed("max-price") && opts.maxPrice < 0) {
				return fmt.Errorf("prices must be non-negative")
			}

			a, release, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			criteria := a.State.Defaults()
			criteria.Search = opts.search
			criteria.Brands = opts.brands
			criteria.Categories = opts.categories
			criteria.Stores = make([]string, 0, len(opts.stores))
			for _, s := range opts.stores {
				criteria.Stores = append(criteria.Stores, feed.StoreID(s))
			}
			criteria.MinPrice = opts.minPrice
			if cmd.Flags().Changed("max-price") {
				criteria.MaxPrice = opts.maxPrice
			}
			criteria.Sort = domain.ParseSortKey(opts.sort)
			criteria.FavoritesOnly = opts.favoritesOnly

			results := a.State.Query(criteria.Normalized())

			pager := usecase.NewPaginator(opts.pageSize)
			pager.Reset(results)
			var page []domain.Product
			for i := 0; i < opts.page; i++ {
				page = pager.Next()
			}

			return p.products(len(results), opts.page, pager.HasMore(), page)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.search, "search", "s", "", "substring of name, brand, category, description or features")
	f.StringSliceVar(&opts.brands, "brand", nil, "brand (repeatable)")
	f.StringSliceVar(&opts.categories, "category", nil, "category (repeatable)")
	f.StringSliceVar(&opts.stores, "store", nil, "store id or name (repeatable)")
	f.Float64Var(&opts.minPrice, "min-price", domain.DefaultMinPrice, "lowest price")
	f.Float64Var(&opts.maxPrice, "max-price", domain.DefaultMaxPrice, "highest price (default from config)")
	f.StringVar(&opts.sort, "sort", string(domain.SortRelevance), "relevance, price-low, price-high, alphabetical or brand")
	f.BoolVar(&opts.favoritesOnly, "favorites-only", false, "only show favorites")
	f.IntVar(&opts.pageSize, "page-size", usecase.DefaultPageSize, "products per page")
	f.IntVar(&opts.page, "page", 1, "page number, starting at 1")

	return cmd
}

func newStatsCmd(build appBuilder, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return p.stats(a.State.Stats())
		},
	}
}

func newFavoritesCmd(build appBuilder, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List or toggle favorite products",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites in the order they were added",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, release, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer release()

				items := a.State.Favorites()
				return p.products(len(items), 1, false, items)
			},
		},
		&cobra.Command{
			Use:   "toggle <product-id>",
			Short: "Add a product to favorites, or remove it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, release, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer release()

				id := args[0]
				favorite, err := a.State.ToggleFavorite(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				return p.toggled(id, favorite)
			},
		},
	)
	return cmd
}

// printer renders results as aligned text or JSON
type printer struct {
	out  io.Writer
	json *bool
}

func (p *printer) products(total, page int, hasMore bool, items []domain.Product) error {
	if *p.json {
		return p.encode(map[string]interface{}{
			"total":   total,
			"page":    page,
			"hasMore": hasMore,
			"items":   items,
		})
	}

	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tCATEGORY\tPRICE\tSTORES")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, item.Brand, item.Category,
			formatPrice(item.LowestPrice), strings.Join(item.AvailableStores, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	more := ""
	if hasMore {
		more = fmt.Sprintf(", next: --page %d", page+1)
	}
	_, err := fmt.Fprintf(p.out, "\n%d of %d products (page %d%s)\n", len(items), total, page, more)
	return err
}

func (p *printer) stats(s usecase.Statistics) error {
	if *p.json {
		return p.encode(s)
	}

	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Products\t%d\n", s.TotalProducts)
	fmt.Fprintf(w, "Brands\t%d\n", s.UniqueBrands)
	fmt.Fprintf(w, "Discounted\t%d\n", s.DiscountedProducts)
	fmt.Fprintf(w, "Favorites\t%d\n", s.Favorites)
	if s.PriceRange != nil {
		fmt.Fprintf(w, "Price range\t%s - %s\n", formatPrice(&s.PriceRange.Min), formatPrice(&s.PriceRange.Max))
	}

	fmt.Fprintln(w, "\nTOP BRANDS\tPRODUCTS")
	for _, b := range s.TopBrands {
		fmt.Fprintf(w, "%s\t%d\n", b.Name, b.Count)
	}
	fmt.Fprintln(w, "\nCATEGORY\tPRODUCTS")
	for _, c := range s.Categories {
		fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Count)
	}
	fmt.Fprintln(w, "\nSTORE\tPRODUCTS\tAVERAGE")
	for _, st := range s.Stores {
		fmt.Fprintf(w, "%s\t%d\t%s\n", st.Store, st.Products, formatPrice(&st.AveragePrice))
	}
	return w.Flush()
}

func (p *printer) toggled(id string, favorite bool) error {
	if *p.json {
		return p.encode(map[string]interface{}{"id": id, "favorite": favorite})
	}
	state := "removed from"
	if favorite {
		state = "added to"
	}
	_, err := fmt.Fprintf(p.out, "%s %s favorites\n", id, state)
	return err
}

func (p *printer) encode(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice prints euros with a decimal comma
func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return "€" + strings.Replace(fmt.Sprintf("%.2f", *v), ".", ",", 1)
}
