package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/pager"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

type tasksOptions struct {
	server      string
	token       string
	search      string
	field       string
	page        int
	interactive bool
}

func newTasksCommand() *cobra.Command {
	var opts tasksOptions

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Browse task records from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := pager.NewHTTPFetcher(opts.server, pager.WithToken(opts.token))
			return runTasks(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), fetcher, opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "Base URL of the auditoria server")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token sent with every request")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Search text")
	cmd.Flags().StringVarP(&opts.field, "field", "f", "", "Apply the search to one field ("+strings.Join(taskrecords.Fields, ", ")+")")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 0, "Zero-based page to show")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Read navigation commands from stdin")
	return cmd
}

func runTasks(ctx context.Context, in io.Reader, out io.Writer, fetcher pager.Fetcher, opts tasksOptions) error {
	// Input arrives line by line, so there is nothing to debounce.
	c := pager.NewController(fetcher, pager.WithDebounce(0), pager.WithLogger(logger.Discard()))
	defer c.Close()

	if err := c.SetSelectedFilter(opts.field); err != nil {
		return err
	}
	c.SetSearch(opts.search)

	p, err := c.Load(ctx)
	if err != nil {
		return err
	}
	for c.State().Page < opts.page && c.Next() {
		if p, err = c.Load(ctx); err != nil {
			return err
		}
	}
	printPage(out, c.State(), p)

	if !opts.interactive {
		return nil
	}
	return browse(ctx, in, out, c)
}

const browseHelp = "commands: n(ext) p(rev) f(irst) l(ast) /text (search) field <name> q(uit)"

func browse(ctx context.Context, in io.Reader, out io.Writer, c *pager.Controller) error {
	fmt.Fprintln(out, browseHelp)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		moved := true
		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			return nil
		case line == "n" || line == "next":
			moved = c.Next()
		case line == "p" || line == "prev":
			moved = c.Previous()
		case line == "f" || line == "first":
			moved = c.First()
		case line == "l" || line == "last":
			moved = c.Last()
		case strings.HasPrefix(line, "/"):
			c.SetSearch(strings.TrimSpace(line[1:]))
		case line == "field" || strings.HasPrefix(line, "field "):
			if err := c.SetSelectedFilter(strings.TrimSpace(strings.TrimPrefix(line, "field"))); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
		default:
			fmt.Fprintln(out, browseHelp)
			continue
		}
		if !moved {
			fmt.Fprintln(out, "no such page")
			continue
		}

		p, err := c.Load(ctx)
		if errors.Is(err, pager.ErrSuperseded) {
			continue
		}
		if err != nil {
			return err
		}
		printPage(out, c.State(), p)
	}
}

func printPage(out io.Writer, st pager.State, p taskrecords.Page) {
	headers := []string{"UUID", "File", "Status", "User", "Campaign", "Duration", "Started"}
	rows := make([][]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		rows = append(rows, []string{
			t.UUID, t.FileName, t.Status, t.User,
			t.Campaign.String(), t.AudioDuration.String(), t.Inicio,
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
		alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft,
	}))

	pages := (p.Total + taskrecords.PageSize - 1) / taskrecords.PageSize
	fmt.Fprintf(out, "page %d/%d, %d results", st.Page+1, max(pages, 1), p.Total)
	if q := describeFilter(st.Filter); q != "" {
		fmt.Fprintf(out, " for %s", q)
	}
	fmt.Fprintln(out)
}

func describeFilter(f taskrecords.Filter) string {
	switch {
	case f.UUID != "":
		return "uuid=" + f.UUID
	case f.FileName != "":
		return "file_name=" + f.FileName
	case f.Status != "":
		return "status=" + f.Status
	case f.User != "":
		return "user=" + f.User
	case f.Campaign != "":
		return "campaign=" + f.Campaign
	case f.GlobalSearch != "":
		return fmt.Sprintf("%q", f.GlobalSearch)
	}
	return ""
}
