package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/pkg/query"
)

// MatchOptions holds the predicate flags shared by count and search.
type MatchOptions struct {
	Term  string
	Field string
	Regex bool
}

func (m *MatchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&m.Term, "term", "t", "", "Search term (empty matches every record)")
	cmd.Flags().StringVar(&m.Field, "field", "all", "Field scope (all|pc|store_pc|load_pc|mem|time|id)")
	cmd.Flags().BoolVar(&m.Regex, "regex", false, "Treat term as a regular expression")
}

func (m *MatchOptions) predicate() (*query.Predicate, error) {
	field, err := query.ParseField(m.Field)
	if err != nil {
		return nil, err
	}
	return query.NewPredicate(m.Term, field, m.Regex), nil
}

// PageOptions holds the pagination flags.
type PageOptions struct {
	Offset int
	Limit  int
}

func (p *PageOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "Matching records to skip")
	cmd.Flags().IntVar(&p.Limit, "limit", query.DefaultLimit, "Maximum records to return")
}

func (g *GlobalOptions) engine(e *env, opts ...query.EngineOption) *query.Engine {
	opts = append([]query.EngineOption{
		query.WithLogger(e.logger),
		query.WithScanOptions(e.cfg.ScanOptions()...),
		query.WithSeed(e.cfg.Analysis.Seed),
	}, opts...)
	return query.NewEngine(e.path, opts...)
}

// NewCountCommand creates the count command.
func NewCountCommand(g *GlobalOptions) *cobra.Command {
	match := &MatchOptions{}
	var maxScanLines int

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count spill records matching a term",
		Long: `Count the spill records matching a term within a field scope.

With --max-scan-lines the scan stops early and the result is marked partial.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := match.predicate()
			if err != nil {
				return err
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			f, err := g.Formatter(false)
			if err != nil {
				return err
			}
			res, err := g.engine(e).Count(e.ctx, query.CountRequest{
				Predicate:    pred,
				MaxScanLines: maxScanLines,
			})
			if err != nil {
				return errors.Wrap(err, "count failed")
			}
			return f.FormatCount(e.ctx, res, e.out)
		},
	}

	match.bind(cmd)
	cmd.Flags().IntVar(&maxScanLines, "max-scan-lines", 0, "Stop after this many records (0 = no limit)")

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(g *GlobalOptions) *cobra.Command {
	match := &MatchOptions{}
	page := &PageOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List spill records matching a term",
		Long: `Return one page of spill records matching a term, in file order.

next_offset is set when more records may follow.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := match.predicate()
			if err != nil {
				return err
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			f, err := g.Formatter(false)
			if err != nil {
				return err
			}
			res, err := g.engine(e).Search(e.ctx, query.SearchRequest{
				Predicate: pred,
				Offset:    page.Offset,
				Limit:     page.Limit,
			})
			if err != nil {
				return errors.Wrap(err, "search failed")
			}
			return f.FormatPage(e.ctx, res, e.out)
		},
	}

	match.bind(cmd)
	page.bind(cmd)

	return cmd
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(g *GlobalOptions) *cobra.Command {
	match := &MatchOptions{}
	var (
		n    int
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw a uniform random sample of spill records",
		Long: `Draw up to N spill records uniformly at random in a single pass.

The same --seed over the same file always returns the same sample.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 0 {
				return errors.Newf("sample size must be >= 0, got %d", n)
			}
			pred, err := match.predicate()
			if err != nil {
				return err
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			f, err := g.Formatter(false)
			if err != nil {
				return err
			}
			res, err := g.engine(e).Sample(e.ctx, query.SampleRequest{
				N:         n,
				Predicate: pred,
				Seed:      seed,
			})
			if err != nil {
				return errors.Wrap(err, "sample failed")
			}
			return f.FormatSample(e.ctx, res, e.out)
		},
	}

	match.bind(cmd)
	cmd.Flags().IntVarP(&n, "size", "n", 1000, "Number of records to sample")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Sampling seed (0 uses analysis.seed, or random)")

	return cmd
}

// NewRangeCommand creates the range command.
func NewRangeCommand(g *GlobalOptions) *cobra.Command {
	page := &PageOptions{}
	var lo, hi int64

	cmd := &cobra.Command{
		Use:   "range",
		Short: "List spill records by store instruction count",
		Long: `Return one page of spill records whose store_inst_count lies
within [--min, --max]. Either bound may be omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.RangeRequest{Offset: page.Offset, Limit: page.Limit}
			if cmd.Flags().Changed("min") {
				req.Min = &lo
			}
			if cmd.Flags().Changed("max") {
				req.Max = &hi
			}

			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			f, err := g.Formatter(false)
			if err != nil {
				return err
			}
			res, err := g.engine(e).Range(e.ctx, req)
			if err != nil {
				return errors.Wrap(err, "range failed")
			}
			return f.FormatPage(e.ctx, res, e.out)
		},
	}

	page.bind(cmd)
	cmd.Flags().Int64Var(&lo, "min", 0, "Minimum store_inst_count, inclusive")
	cmd.Flags().Int64Var(&hi, "max", 0, "Maximum store_inst_count, inclusive")

	return cmd
}
