package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/feedback"
	"github.com/Sternrassler/your-energy-client/pkg/reconciler"
	"github.com/Sternrassler/your-energy-client/pkg/session"
)

var errUsage = errors.New("invalid usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// dispatch runs one subcommand.
func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "quote":
		return a.cmdQuote(ctx)
	case "filters":
		return a.cmdFilters(ctx, args)
	case "exercises":
		return a.cmdExercises(ctx, args)
	case "exercise":
		return a.cmdExercise(ctx, args)
	case "favorites", "fav":
		return a.cmdFavorites(ctx, args)
	case "rate":
		return a.cmdRate(ctx, args)
	case "subscribe":
		return a.cmdSubscribe(ctx, args)
	case "browse":
		return a.browse(ctx)
	default:
		return usageError("unknown command %q", cmd)
	}
}

func (a *app) cmdQuote(ctx context.Context) error {
	q, err := a.quotes.Today(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%q\n  - %s\n", q.Quote, q.Author)
	return nil
}

func (a *app) cmdFilters(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("filters", pflag.ContinueOnError)
	page := fs.IntP("page", "p", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}

	filter := client.FilterMuscles
	if fs.NArg() > 0 {
		filter = strings.Join(fs.Args(), " ")
	}

	s := a.newSession()
	if err := s.Open(ctx, session.State{Filter: filter, Page: *page}); err != nil {
		return usageError("%v", err)
	}
	s.Wait()
	return nil
}

func (a *app) cmdExercises(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("exercises", pflag.ContinueOnError)
	page := fs.IntP("page", "p", 1, "Page number")
	keyword := fs.StringP("keyword", "k", "", "Search keyword")
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if fs.NArg() != 2 {
		return usageError("exercises <filter> <category>")
	}

	s := a.newSession()
	err := s.Open(ctx, session.State{
		Filter:   fs.Arg(0),
		Category: fs.Arg(1),
		Keyword:  *keyword,
		Page:     *page,
	})
	if err != nil {
		return usageError("%v", err)
	}
	s.Wait()
	return nil
}

func (a *app) cmdExercise(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("exercise <id>")
	}
	s := a.newSession()
	d, err := s.ExerciseDetail(ctx, args[0])
	if err != nil {
		return err
	}
	a.printDetail(d.Exercise, d.Favorite)
	return nil
}

func (a *app) printDetail(e *client.Exercise, favorite bool) {
	fmt.Fprintf(a.out, "%s (%s)\n", reconciler.Capitalize(e.Name), e.ID)
	fmt.Fprintf(a.out, "  Rating:          %.1f\n", e.Rating)
	fmt.Fprintf(a.out, "  Target:          %s\n", e.Target)
	fmt.Fprintf(a.out, "  Body part:       %s\n", e.BodyPart)
	fmt.Fprintf(a.out, "  Equipment:       %s\n", e.Equipment)
	fmt.Fprintf(a.out, "  Popular:         %d\n", e.Popularity)
	fmt.Fprintf(a.out, "  Burned calories: %d / %d min\n", e.BurnedCalories, e.Time)
	if e.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", e.Description)
	}
	fmt.Fprintf(a.out, "  Favorite:        %t\n", favorite)
}

func (a *app) cmdFavorites(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, rest := args[0], args[1:]

	needID := func() (string, error) {
		if len(rest) != 1 || strings.TrimSpace(rest[0]) == "" {
			return "", usageError("favorites %s <id>", sub)
		}
		return rest[0], nil
	}

	switch sub {
	case "list":
		for _, id := range a.favorites.List(ctx) {
			fmt.Fprintln(a.out, id)
		}
	case "show":
		s := a.newSession()
		s.SwitchToFavorites(ctx)
		s.Wait()
	case "add":
		id, err := needID()
		if err != nil {
			return err
		}
		if a.favorites.Add(ctx, id) {
			fmt.Fprintf(a.out, "Added %s to favorites\n", id)
		} else {
			fmt.Fprintf(a.out, "%s is already a favorite\n", id)
		}
	case "remove":
		id, err := needID()
		if err != nil {
			return err
		}
		a.favorites.Remove(ctx, id)
		fmt.Fprintf(a.out, "Removed %s from favorites\n", id)
	case "toggle":
		id, err := needID()
		if err != nil {
			return err
		}
		if a.favorites.Toggle(ctx, id) {
			fmt.Fprintf(a.out, "Added %s to favorites\n", id)
		} else {
			fmt.Fprintf(a.out, "Removed %s from favorites\n", id)
		}
	default:
		return usageError("unknown favorites command %q", sub)
	}
	return nil
}

func (a *app) cmdRate(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("rate", pflag.ContinueOnError)
	rate := fs.IntP("rate", "r", 0, "Rating from 1 to 5")
	email := fs.StringP("email", "e", "", "Your email")
	review := fs.StringP("review", "m", "", "Your comment")
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if fs.NArg() != 1 {
		return usageError("rate <id> --rate N --email E --review R")
	}

	res, err := feedback.SubmitRating(ctx, a.api, feedback.Rating{
		ExerciseID: fs.Arg(0),
		Rate:       *rate,
		Email:      *email,
		Review:     *review,
	})
	if err != nil {
		return errors.New(feedback.ErrorMessage(err, feedback.MsgRatingFailed))
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *app) cmdSubscribe(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("subscribe <email>")
	}
	resp, err := feedback.Subscribe(ctx, a.api, args[0])
	if err != nil {
		return errors.New(feedback.ErrorMessage(err, feedback.MsgSubscribeFailed))
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, usageError("page must be a positive number (got %q)", s)
	}
	return n, nil
}
