package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	chitransport "github.com/abdul7867/SearchAi/internal/transport/chi"
	"github.com/abdul7867/SearchAi/pkg/client"
)

type globals struct {
	server string
	token  string
	limit  int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "searchaictl",
		Short:         "Command-line client for the SearchAI API",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.server, "server", envOr("SEARCHAI_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&g.token, "token", os.Getenv("SEARCHAI_TOKEN"), "session token")
	rootCmd.PersistentFlags().IntVarP(&g.limit, "limit", "n", 20, "page size")

	rootCmd.AddCommand(searchCmd(g))
	rootCmd.AddCommand(historyCmd(g))
	rootCmd.AddCommand(bookmarksCmd(g))
	rootCmd.AddCommand(bookmarkCmd(g))
	rootCmd.AddCommand(showCmd(g))
	rootCmd.AddCommand(deleteCmd(g))
	rootCmd.AddCommand(clearCmd(g))
	rootCmd.AddCommand(cleanupCmd(g))
	rootCmd.AddCommand(collectionsCmd(g))
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}

func (g *globals) store() (*client.Store, error) {
	c, err := g.client()
	if err != nil {
		return nil, err
	}
	return client.NewStore(c), nil
}

func (g *globals) client() (*client.Client, error) {
	opts := []client.Option{client.WithPageLimit(g.limit)}
	if g.token != "" {
		opts = append(opts, client.WithToken(g.token))
	}
	return client.New(g.server, opts...)
}

// userError replaces an API error with its display message.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(client.UserMessage(err))
}

func searchCmd(g *globals) *cobra.Command {
	var focus, conversation string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a search (saved to history when a token is set)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			res, err := c.Search(cmd.Context(), client.SearchInput{
				Query:          strings.Join(args, " "),
				Focus:          focus,
				ConversationID: conversation,
			})
			if err != nil {
				return userError(err)
			}
			printSearch(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "general, academic, news or technical")
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation id")
	return cmd
}

func historyCmd(g *globals) *cobra.Command {
	var pages int
	var sort string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List search history",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			var snap client.Snapshot
			for p := 1; p <= pages; p++ {
				snap, err = st.LoadHistory(cmd.Context(), p, sort)
				if err != nil {
					return userError(err)
				}
				if p >= snap.HistoryPage.Pages {
					break
				}
			}
			if len(snap.History) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No searches yet.")
				return nil
			}
			printSummaries(cmd.OutOrStdout(), snap.History)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d searches\n", len(snap.History), snap.HistoryPage.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	cmd.Flags().StringVar(&sort, "sort", "", "sort field (only createdAt is supported)")
	return cmd
}

func bookmarksCmd(g *globals) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List bookmarked searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			var snap client.Snapshot
			for p := 1; p <= pages; p++ {
				snap, err = st.LoadBookmarked(cmd.Context(), p)
				if err != nil {
					return userError(err)
				}
				if p >= snap.BookmarkedPage.Pages {
					break
				}
			}
			if len(snap.Bookmarked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks yet.")
				return nil
			}
			printSummaries(cmd.OutOrStdout(), snap.Bookmarked)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func bookmarkCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark [search-id]",
		Short: "Toggle the bookmark on a search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			marked, err := c.ToggleBookmark(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			if marked {
				fmt.Fprintf(cmd.OutOrStdout(), "Bookmarked %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed bookmark from %s\n", args[0])
			}
			return nil
		},
	}
}

func showCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show [search-id]",
		Short: "Show a search with its full answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			res, err := c.GetSearch(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			printSearch(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func deleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [search-id]",
		Short: "Delete a search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if err := c.DeleteSearch(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Search deleted successfully")
			return nil
		},
	}
}

func clearCmd(g *globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the entire search history (irreversible)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this permanently deletes every search; pass --yes to confirm")
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			_, msg, err := c.ClearHistory(cmd.Context())
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func cleanupCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Prune old non-bookmarked searches (irreversible)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			_, msg, err := c.CleanupHistory(cmd.Context())
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func collectionsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"col"},
		Short:   "Manage collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			snap, err := st.LoadCollections(cmd.Context(), 1)
			if err != nil {
				return userError(err)
			}
			if len(snap.Collections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections yet.")
				return nil
			}
			for _, c := range snap.Collections {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-30s %d searches\n", shortID(c.ID), c.Color, c.Name, c.SearchesCount)
			}
			return nil
		},
	}

	cmd.AddCommand(collectionCreateCmd(g))
	cmd.AddCommand(collectionShowCmd(g))
	cmd.AddCommand(collectionUpdateCmd(g))
	cmd.AddCommand(collectionDeleteCmd(g))
	cmd.AddCommand(collectionMemberCmd(g, true))
	cmd.AddCommand(collectionMemberCmd(g, false))
	return cmd
}

func collectionCreateCmd(g *globals) *cobra.Command {
	var description, color string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			in := client.CollectionInput{Name: &name}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("color") {
				in.Color = &color
			}
			col, err := c.CreateCollection(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collection %s (%s)\n", col.ID, col.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&color, "color", "", "hex color like #3B82F6")
	return cmd
}

func collectionShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show [collection-id]",
		Short: "Show a collection and its searches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			snap, err := st.OpenCollection(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			cur := snap.Current
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", cur.Name, cur.Color)
			if cur.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cur.Description)
			}
			if len(cur.Searches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No searches in this collection.")
				return nil
			}
			printSummaries(cmd.OutOrStdout(), cur.Searches)
			return nil
		},
	}
}

func collectionUpdateCmd(g *globals) *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "update [collection-id]",
		Short: "Rename or recolor a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.CollectionInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("color") {
				in.Color = &color
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			col, err := c.UpdateCollection(cmd.Context(), args[0], in)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated collection %s (%s %s)\n", col.ID, col.Name, col.Color)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&color, "color", "", "new hex color")
	return cmd
}

func collectionDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [collection-id]",
		Short: "Delete a collection (its searches are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if err := c.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Collection deleted successfully")
			return nil
		},
	}
}

func collectionMemberCmd(g *globals, add bool) *cobra.Command {
	use, short := "remove [collection-id] [search-id]", "Remove a search from a collection"
	if add {
		use, short = "add [collection-id] [search-id]", "Add a search to a collection"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			var res client.Result
			if add {
				res, err = c.AddToCollection(cmd.Context(), args[0], args[1])
			} else {
				res, err = c.RemoveFromCollection(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var secret, cookie string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign a development session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			tok, err := chitransport.NewAuthenticator(secret, cookie).Sign(args[0], time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "JWT signing secret")
	cmd.Flags().StringVar(&cookie, "cookie", "", "cookie name")
	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "token lifetime")
	return cmd
}

func printSearch(w io.Writer, s client.Search) {
	if s.ID != "" {
		fmt.Fprintf(w, "%s  [%s]", s.ID, s.Focus)
		if s.IsBookmarked {
			fmt.Fprint(w, "  *")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Q: %s\n\n%s\n", s.Query, s.Answer)
	if len(s.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, src := range s.Sources {
			fmt.Fprintf(w, "  [%d] %s  %s\n", i+1, src.Title, src.URL)
		}
	}
}

func printSummaries(w io.Writer, items []client.Summary) {
	for _, s := range items {
		mark := " "
		if s.IsBookmarked {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s  %s  %s\n", mark, shortID(s.ID), s.CreatedAt.Format("2006-01-02 15:04"), truncate(s.Query, 60))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
