package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/viant/hotelsearch/search"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		n      int
		k      int
		queryX float64
		queryY float64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one nearest-neighbour search over freshly generated points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := a.cfg.Search
			if cmd.Flags().Changed("n") {
				req.N = &n
			}
			if cmd.Flags().Changed("k") {
				req.K = &k
			}
			if cmd.Flags().Changed("query-x") {
				req.QueryX = &queryX
			}
			if cmd.Flags().Changed("query-y") {
				req.QueryY = &queryY
			}
			resp, err := search.Run(req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVar(&n, "n", search.DefaultN, "Number of candidate points")
	cmd.Flags().IntVar(&k, "k", search.DefaultK, "Number of nearest points to return")
	cmd.Flags().Float64Var(&queryX, "query-x", search.DefaultQueryX, "Query point x")
	cmd.Flags().Float64Var(&queryY, "query-y", search.DefaultQueryY, "Query point y")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
