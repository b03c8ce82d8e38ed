package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/errors"
	"github.com/pcathey/trellis/internal/ops"
	"github.com/pcathey/trellis/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "trellis",
		Usage:   "Card graph with context assembly and staleness tracking",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(db, cfg),
			fetchCmd(db, cfg),
			listCmd(db, cfg),
			updateCmd(db, cfg),
			deleteCmd(db, cfg),
			linkCmd(db, cfg),
			unlinkCmd(db, cfg),
			parentsCmd(db, cfg),
			attachCmd(db, cfg),
			detachCmd(db, cfg),
			excludeCmd(db, cfg),
			contextCmd(db, cfg),
			commitCmd(db, cfg),
			searchCmd(db, cfg),
			virtualCmd(db, cfg),
			virtualSetCmd(db, cfg),
			docCmd(db, cfg),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// storeCmd creates the store command.
func storeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "store",
		Usage:     "Create a card",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "answerable", Usage: "Card kind: answerable|note"},
			&cli.StringSliceFlag{Name: "parent", Aliases: []string{"p"}, Usage: "Parent card id (repeatable, order matters)"},
			&cli.StringFlag{Name: "quote", Usage: "Fragment of an ancestor's response to anchor to"},
			&cli.StringFlag{Name: "quote-source", Usage: "Card id the quote was taken from"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("prompt argument is required"))
			}

			input := ops.StoreCardInput{
				Prompt:    strings.Join(c.Args().Slice(), " "),
				Kind:      c.String("kind"),
				ParentIDs: c.StringSlice("parent"),
			}
			if quote := c.String("quote"); quote != "" {
				input.Quote = &quote
			}
			if src := c.String("quote-source"); src != "" {
				input.QuoteSourceID = &src
			}

			output, err := ops.StoreCard(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a card by id",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Also resolve soft-deleted cards"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.FetchCard(c.Context, db, cfg, ops.FetchCardInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListCards(c.Context, db, cfg, ops.ListCardsInput{
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit a card's prompt, summary, or quote anchor",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Usage: "New prompt text"},
			&cli.StringFlag{Name: "summary", Usage: "Externally produced summary of the response"},
			&cli.StringFlag{Name: "quote", Usage: "New quote fragment"},
			&cli.StringFlag{Name: "quote-source", Usage: "Card id the quote was taken from"},
			&cli.BoolFlag{Name: "clear-quote", Usage: "Remove the quote anchor"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateCardInput{
				ID:         c.Args().First(),
				ClearQuote: c.Bool("clear-quote"),
			}
			if c.IsSet("prompt") {
				prompt := c.String("prompt")
				input.Prompt = &prompt
			}
			if c.IsSet("summary") {
				summary := c.String("summary")
				input.Summary = &summary
			}
			if c.IsSet("quote") {
				quote := c.String("quote")
				input.Quote = &quote
			}
			if c.IsSet("quote-source") {
				src := c.String("quote-source")
				input.QuoteSourceID = &src
			}

			output, err := ops.UpdateCard(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a card",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.DeleteCard(c.Context, db, cfg, ops.DeleteCardInput{
				ID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// linkCmd creates the link command.
func linkCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Make source a parent of target",
		ArgsUsage: "<source-id> <target-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("link requires <source-id> <target-id>"))
			}
			output, err := ops.LinkCards(c.Context, db, cfg, ops.LinkCardsInput{
				SourceID: c.Args().Get(0),
				TargetID: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// unlinkCmd creates the unlink command.
func unlinkCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "unlink",
		Usage:     "Remove a parent->child link",
		ArgsUsage: "<source-id> <target-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("unlink requires <source-id> <target-id>"))
			}
			output, err := ops.UnlinkCards(c.Context, db, cfg, ops.LinkCardsInput{
				SourceID: c.Args().Get(0),
				TargetID: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// parentsCmd creates the parents command.
func parentsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "parents",
		Usage:     "Replace a card's explicit ordered parent list (no parent ids clears it)",
		ArgsUsage: "<id> [parent-id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			output, err := ops.SetParents(c.Context, db, cfg, ops.SetParentsInput{
				ID:        c.Args().First(),
				ParentIDs: c.Args().Tail(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// attachCmd creates the attach command.
func attachCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "attach",
		Usage:     "Attach a document to a card",
		ArgsUsage: "<card-id> <attachment-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "text", Usage: "Attachment kind: text|image"},
			&cli.StringFlag{Name: "excerpt", Usage: "Cached leading slice of the document text"},
			&cli.StringFlag{Name: "summary", Usage: "Cached condensation of the document"},
			&cli.StringFlag{Name: "description", Usage: "Cached caption for image attachments"},
			&cli.StringFlag{Name: "doc-version", Usage: "Cache-busting marker"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("attach requires <card-id> <attachment-id>"))
			}
			input := ops.AttachDocInput{
				CardID:       c.Args().Get(0),
				AttachmentID: c.Args().Get(1),
				Kind:         c.String("kind"),
			}
			if v := c.String("excerpt"); v != "" {
				input.Excerpt = &v
			}
			if v := c.String("summary"); v != "" {
				input.Summary = &v
			}
			if v := c.String("description"); v != "" {
				input.Description = &v
			}
			if v := c.String("doc-version"); v != "" {
				input.Version = &v
			}

			output, err := ops.AttachDoc(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// detachCmd creates the detach command.
func detachCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "detach",
		Usage:     "Remove an attachment from a card",
		ArgsUsage: "<card-id> <attachment-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("detach requires <card-id> <attachment-id>"))
			}
			output, err := ops.DetachDoc(c.Context, db, cfg, ops.DetachDocInput{
				CardID:       c.Args().Get(0),
				AttachmentID: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// excludeCmd creates the exclude command.
func excludeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "exclude",
		Usage:     "Toggle an ancestor or attachment in or out of a card's context",
		ArgsUsage: "<card-id> <target-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "attachment", Aliases: []string{"a"}, Usage: "Target is an attachment id"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("exclude requires <card-id> <target-id>"))
			}
			input := ops.ToggleExcludeInput{
				CardID:   c.Args().Get(0),
				TargetID: c.Args().Get(1),
			}

			var (
				output *ops.ToggleExcludeOutput
				err    error
			)
			if c.Bool("attachment") {
				output, err = ops.ToggleExcludeAttachment(c.Context, db, cfg, input)
			} else {
				output, err = ops.ToggleExcludeAncestor(c.Context, db, cfg, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Assemble a card's context: blocks, flattened text, fingerprint, stale flag",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "text", Aliases: []string{"t"}, Usage: "Print only the flattened context text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Context(c.Context, db, cfg, ops.ContextInput{
				CardID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text") {
				fmt.Println(output.ContextText)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// commitCmd creates the commit command.
func commitCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "commit",
		Usage:     "Save a generated response (reads response from stdin)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("response must be piped via stdin"))
			}
			response, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.CommitResponse(c.Context, db, cfg, ops.CommitResponseInput{
				CardID:   c.Args().First(),
				Response: response,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over prompts and responses",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum hits to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.SearchCards(c.Context, db, cfg, ops.SearchCardsInput{
				Query: strings.Join(c.Args().Slice(), " "),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// virtualCmd creates the virtual command.
func virtualCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "virtual",
		Usage:     "Rank virtual-ancestor candidates for a card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search query (defaults to the card's prompt)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum candidates before the top-K cap"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.VirtualCandidates(c.Context, db, cfg, ops.VirtualCandidatesInput{
				CardID: c.Args().First(),
				Query:  c.String("query"),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// virtualSetCmd creates the virtual-set command.
func virtualSetCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "virtual-set",
		Usage:     "Store a card's virtual-ancestor list (no ids clears it)",
		ArgsUsage: "<id> [card-id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			output, err := ops.SetVirtualAncestors(c.Context, db, cfg, ops.SetVirtualAncestorsInput{
				CardID: c.Args().First(),
				IDs:    c.Args().Tail(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// docCmd creates the doc command.
func docCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "doc",
		Usage:     "Upsert an authoritative document store entry",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "text", Usage: "Document kind: text|image"},
			&cli.StringFlag{Name: "excerpt", Usage: "Leading slice of the document text"},
			&cli.StringFlag{Name: "summary", Usage: "Condensation of the document"},
			&cli.StringFlag{Name: "description", Usage: "Caption for image documents"},
			&cli.StringFlag{Name: "doc-version", Usage: "Cache-busting marker"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PutDocumentInput{
				ID:   c.Args().First(),
				Kind: c.String("kind"),
			}
			if v := c.String("excerpt"); v != "" {
				input.Excerpt = &v
			}
			if v := c.String("summary"); v != "" {
				input.Summary = &v
			}
			if v := c.String("description"); v != "" {
				input.Description = &v
			}
			if v := c.String("doc-version"); v != "" {
				input.Version = &v
			}

			output, err := ops.PutDocument(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7171, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.TrellisError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
