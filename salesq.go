// Package salesq answers natural-language questions about a transactional
// sales table. Sales Query for any sales ledger.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/salesq/chat"
//	    "github.com/spektr-org/salesq/helpers"
//	    "github.com/spektr-org/salesq/schema"
//	    "github.com/spektr-org/salesq/translator"
//	)
//
//	store, _ := helpers.LoadFile(ctx, "sales.csv", "", "")
//	x := translator.NewExtractor(translator.NewHeuristic(), schema.FromStore(store))
//	s := chat.NewAssistant(store, x).NewSession("demo")
//	ans, err := s.Ask(ctx, "Top 5 brands by active stores in 2024")
//
// The translator turns a question into a validated engine.QuerySpec; the
// engine computes it over the in-memory dataset.Store; the format package
// renders text, chart data and export rows. Only the translator's Gemini
// provider calls an external service. All computation is local.
package salesq
