// Package client is a Go client for the SearchAI HTTP API plus a local
// synchronization layer that mirrors history, bookmark and collection state.
//
// # HTTP API
//
//	c, _ := client.New("http://localhost:8080", client.WithToken(token))
//	page, _ := c.History(ctx, client.HistoryQuery{Page: 1, Limit: 20})
//	rec, _ := c.Search(ctx, client.SearchInput{Query: "go generics"})
//
// # Synchronized views
//
// Store keeps one growing list per view. Page 1 replaces a view, later pages
// append only unseen ids. Mutations are applied locally only after the server
// confirms them, and every action returns an immutable Snapshot.
//
//	st := client.NewStore(c)
//	snap, _ := st.LoadHistory(ctx, 1)
//	snap, _ = st.ToggleBookmark(ctx, snap.History[0].ID)
package client
