package shelfdex

import "context"

// QueryBuilder is a fluent builder for searches.
type QueryBuilder struct {
	client *Client
	req    SearchRequest
}

// Query starts a free-text search. An empty query browses.
func (c *Client) Query(q string) *QueryBuilder {
	return &QueryBuilder{client: c, req: SearchRequest{Query: q}}
}

// Browse starts a search with no query text.
func (c *Client) Browse() *QueryBuilder {
	return c.Query("")
}

// JSON switches the query text to the structured and/or/not language.
func (b *QueryBuilder) JSON() *QueryBuilder {
	b.req.Mode = ModeJSON
	return b
}

// Library scopes the search to a library's collections and policies.
func (b *QueryBuilder) Library(shortName string) *QueryBuilder {
	b.req.Library = shortName
	return b
}

// Lane browses a lane of the library.
func (b *QueryBuilder) Lane(id int64) *QueryBuilder {
	b.req.LaneID = &id
	return b
}

// Where sets a raw filter option, for example Where("fiction", true).
func (b *QueryBuilder) Where(key string, value any) *QueryBuilder {
	if b.req.Filter == nil {
		b.req.Filter = make(map[string]any)
	}
	b.req.Filter[key] = value
	return b
}

// Order sorts by one of the Order constants in its natural direction.
func (b *QueryBuilder) Order(order string) *QueryBuilder {
	b.req.Facets.Order = order
	return b
}

// Asc sorts ascending.
func (b *QueryBuilder) Asc() *QueryBuilder {
	asc := true
	b.req.Facets.Ascending = &asc
	return b
}

// Desc sorts descending.
func (b *QueryBuilder) Desc() *QueryBuilder {
	asc := false
	b.req.Facets.Ascending = &asc
	return b
}

// Available keeps works that can be borrowed now.
func (b *QueryBuilder) Available() *QueryBuilder {
	b.req.Facets.Availability = AvailableNow
	return b
}

// Availability sets one of the Available constants.
func (b *QueryBuilder) Availability(a string) *QueryBuilder {
	b.req.Facets.Availability = a
	return b
}

// EntryPoint restricts to books or audiobooks.
func (b *QueryBuilder) EntryPoint(ep string) *QueryBuilder {
	b.req.Facets.EntryPoint = ep
	return b
}

// Languages restricts to works in any of the languages.
func (b *QueryBuilder) Languages(langs ...string) *QueryBuilder {
	b.req.Facets.Languages = append(b.req.Facets.Languages, langs...)
	return b
}

// Featured orders by featurability and quality.
func (b *QueryBuilder) Featured() *QueryBuilder {
	b.req.Facets.Featured = true
	return b
}

// After continues from a cursor returned as Page.Next.
func (b *QueryBuilder) After(c Cursor) *QueryBuilder {
	b.req.Cursor = &c
	return b
}

// Limit sets the page size.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.req.Size = n
	return b
}

// Explain asks the engine for scoring explanations.
func (b *QueryBuilder) Explain() *QueryBuilder {
	b.req.Explain = true
	return b
}

// Suppressed lists the works the library hides from patrons.
func (b *QueryBuilder) Suppressed() *QueryBuilder {
	b.req.Suppressed = true
	return b
}

// Request returns the request built so far.
func (b *QueryBuilder) Request() SearchRequest {
	return b.req
}

// Do runs the search.
func (b *QueryBuilder) Do(ctx context.Context) (*Page, error) {
	return b.client.Search(ctx, b.req)
}

// Compile returns the compiled search without running it.
func (b *QueryBuilder) Compile(ctx context.Context) (*Explanation, error) {
	return b.client.Explain(ctx, b.req)
}
