// Package shelfdex embeds the shelfdex catalog search engine in a Go
// program. It compiles patron searches into OpenSearch requests, runs
// them and returns pages of work IDs.
//
// # Low-level API
//
//	client, _ := shelfdex.New(ctx,
//	    shelfdex.WithOpenSearch([]string{"http://localhost:9200"}, "works"),
//	    shelfdex.WithRedisCatalog("localhost:6379", "", ""),
//	)
//	page, _ := client.Search(ctx, shelfdex.SearchRequest{
//	    Query:   "science fiction for teens",
//	    Library: "nypl",
//	    Size:    20,
//	})
//
// # Fluent API
//
//	page, _ := client.Query("octavia butler").
//	    Library("nypl").
//	    Available().
//	    Limit(10).
//	    Do(ctx)
//
//	for next := page.Next; next != nil; next = page.Next {
//	    page, _ = client.Query("octavia butler").Library("nypl").After(*next).Do(ctx)
//	}
package shelfdex
