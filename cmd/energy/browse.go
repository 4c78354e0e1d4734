package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/your-energy-client/pkg/feedback"
	"github.com/Sternrassler/your-energy-client/pkg/session"
)

const browseHelp = `Commands:
  filter <Muscles|Body parts|Equipment>   show categories of a filter
  category <name>                         show exercises of a category
  search [keyword]                        search the selected category
  page <n>                                go to page n
  back                                    back to the categories
  home | favorites                        switch mode
  fav <id> | unfav <id> | toggle <id>     edit favorites
  detail <id>                             exercise details
  rate <id> <1-5> <email> <comment...>    rate an exercise
  subscribe <email>                       newsletter subscription
  quote | state | help | quit
`

// browse runs an interactive session reading one command per line.
func (a *app) browse(ctx context.Context) error {
	s := a.newSession()
	s.Start(ctx)
	s.Wait()

	scanner := bufio.NewScanner(a.in)
	fmt.Fprint(a.out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			break
		}
		if line != "" {
			if err := a.browseCommand(ctx, s, line); err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
			}
			s.Wait()
		}
		fmt.Fprint(a.out, "> ")
	}
	fmt.Fprintln(a.out)
	return scanner.Err()
}

func (a *app) browseCommand(ctx context.Context, s *session.Session, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "filter":
		return s.SelectFilter(ctx, arg)
	case "category":
		return s.SelectCategory(ctx, arg)
	case "search":
		return s.Search(ctx, arg)
	case "page":
		n, err := parsePage(arg)
		if err != nil {
			return err
		}
		return s.GoToPage(ctx, n)
	case "back":
		return s.ShowCategories(ctx)
	case "home":
		s.SwitchToHome(ctx)
	case "favorites":
		s.SwitchToFavorites(ctx)
	case "fav":
		if !s.AddFavorite(ctx, arg) {
			fmt.Fprintf(a.out, "%s is already a favorite\n", arg)
		}
	case "unfav":
		s.RemoveFavorite(ctx, arg)
	case "toggle":
		if s.ToggleFavorite(ctx, arg) {
			fmt.Fprintf(a.out, "Added %s to favorites\n", arg)
		} else {
			fmt.Fprintf(a.out, "Removed %s from favorites\n", arg)
		}
	case "detail":
		d, err := s.ExerciseDetail(ctx, arg)
		if err != nil {
			return err
		}
		a.printDetail(d.Exercise, d.Favorite)
	case "rate":
		return a.browseRate(ctx, arg)
	case "subscribe":
		return a.cmdSubscribe(ctx, []string{arg})
	case "quote":
		return a.cmdQuote(ctx)
	case "state":
		st := s.State()
		fmt.Fprintf(a.out, "mode=%s filter=%q category=%q page=%d keyword=%q\n",
			st.Mode, st.Filter, st.Category, st.Page, st.Keyword)
	case "help":
		fmt.Fprint(a.out, browseHelp)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (a *app) browseRate(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) < 4 {
		return fmt.Errorf("rate <id> <1-5> <email> <comment...>")
	}
	// A malformed rating fails validation as an unselected one.
	rate, _ := strconv.Atoi(fields[1])
	res, err := feedback.SubmitRating(ctx, a.api, feedback.Rating{
		ExerciseID: fields[0],
		Rate:       rate,
		Email:      fields[2],
		Review:     strings.Join(fields[3:], " "),
	})
	if err != nil {
		return fmt.Errorf("%s", feedback.ErrorMessage(err, feedback.MsgRatingFailed))
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}
