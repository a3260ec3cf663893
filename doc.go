// Package codexsearch searches Codex session transcripts.
//
// Engine ties the pieces together: it discovers session logs under the
// configured directory, optionally through an on-disk parse cache, and hands
// them either to a batch Searcher or to a live ingestion Pipeline that
// re-ranks as sessions stream in and the query changes.
//
//	cfg := config.New(config.FromEnv(os.Getenv))
//	engine, err := codexsearch.NewEngine(cfg)
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	results, err := engine.Search(ctx, "login bug")
package codexsearch
