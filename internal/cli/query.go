package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/recall/internal/retriever"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query the collection",
	Long:  "Rank documents by semantic similarity plus recency decay and print the top k. Returned documents have their last-access time refreshed.",
	Args:  cobra.MinimumNArgs(1),
	Run:   runQuery,
}

func init() {
	queryCmd.Flags().IntP("k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().String("now", "", "score decay against this RFC3339 timestamp instead of the wall clock")
}

func runQuery(cmd *cobra.Command, args []string) {
	k, _ := cmd.Flags().GetInt("k")
	nowStr, _ := cmd.Flags().GetString("now")

	opts := retriever.QueryOpts{K: k}
	if nowStr != "" {
		now, err := time.Parse(time.RFC3339, nowStr)
		if err != nil {
			exitErr("parse --now", err)
		}
		opts.Now = now
	}

	a, err := openApp()
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	results, err := a.ret.Query(cmd.Context(), strings.Join(args, " "), opts)
	if err != nil {
		exitErr("query", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	// Persist the refreshed last-access times
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Doc.ID
	}
	if err := a.db.TouchDocuments(ids, results[0].Doc.LastAccessedAt); err != nil {
		exitErr("persist touch", err)
	}

	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s  (sim %.4f, decay %.4f, bonus %.2f)\n",
			i+1, r.Score, r.Doc.ID, r.Similarity, r.Decay, r.Bonus)
		fmt.Printf("   %s\n", firstLine(r.Doc.Content))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
