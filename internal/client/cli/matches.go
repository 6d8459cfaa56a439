package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pup/internal/client/models"
)

const browsePageSize = 10

// parseBrowseArgs reads "key=value" filters and the bare word "scores".
func parseBrowseArgs(args []string) (models.BrowseQuery, error) {
	q := models.BrowseQuery{Limit: browsePageSize}
	for _, arg := range args {
		if arg == "scores" {
			q.WithScores = true
			continue
		}
		k, v, ok := strings.Cut(arg, "=")
		if !ok || v == "" {
			return q, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch k {
		case "domain":
			q.Domain = v
		case "archetype":
			q.Archetype = v
		case "modality":
			q.Modality = v
		case "limit":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return q, fmt.Errorf("limit must be a positive number")
			}
			q.Limit = n
		default:
			return q, fmt.Errorf("unknown filter %q", k)
		}
	}
	return q, nil
}

// Browse shows the first page of candidates for the given filters.
func (a *App) Browse(ctx context.Context, args []string) error {
	q, err := parseBrowseArgs(args)
	if err != nil {
		return a.reportPlain(err)
	}
	return a.browse(ctx, q)
}

// Next continues the last browse.
func (a *App) Next(ctx context.Context) error {
	if a.last.Cursor == "" {
		fmt.Fprintln(a.out, "No more profiles. Run 'browse' to start over.")
		return nil
	}
	return a.browse(ctx, a.last)
}

func (a *App) browse(ctx context.Context, q models.BrowseQuery) error {
	page, err := a.matches.Browse(ctx, q)
	if err != nil {
		return a.report(err)
	}

	if len(page.Profiles) == 0 {
		fmt.Fprintln(a.out, "Nobody new to show.")
	}
	for _, c := range page.Profiles {
		fmt.Fprintf(a.out, "  %s  %s\n", c.UserID, c.Summary())
	}

	a.last = q
	a.last.Cursor = page.NextCursor
	if page.NextCursor != "" {
		fmt.Fprintln(a.out, "Type 'next' for more.")
	}
	return nil
}

func (a *App) Admire(ctx context.Context, targetUserID string) error {
	res, err := a.matches.Admire(ctx, targetUserID)
	if err != nil {
		return a.report(err)
	}
	if res.IsMutualMatch {
		fmt.Fprintln(a.out, "It's a match!")
	} else {
		fmt.Fprintln(a.out, "Admiration sent.")
	}
	return nil
}

func (a *App) Pass(ctx context.Context, targetUserID string) error {
	if _, err := a.matches.Pass(ctx, targetUserID); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Passed.")
	return nil
}

// Matches lists mutual matches; with admirers set it lists everything.
func (a *App) Matches(ctx context.Context, admirers bool) error {
	got, err := a.matches.Interactions(ctx)
	if err != nil {
		return a.report(err)
	}

	a.printCards("Matches", got.Matches)
	if admirers {
		a.printCards("Admired you", got.Admirers)
		a.printCards("You admired", got.Admired)
	}
	return nil
}

func (a *App) printCards(title string, cards []models.ProfileCard) {
	fmt.Fprintf(a.out, "%s (%d):\n", title, len(cards))
	for _, c := range cards {
		fmt.Fprintf(a.out, "  %s  %s\n", c.UserID, c.Summary())
	}
}
