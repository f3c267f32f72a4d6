package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/score-predictor/internal/app"
	"github.com/riskibarqy/score-predictor/internal/config"
	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/usecase"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "predictorctl",
		Usage: "operate the score predictor against the configured store",
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			container, err := app.NewContainer(c.Context, cfg, logging.NewConsole(cfg.LogLevel))
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]any{"container": container}
			return nil
		},
		After: func(c *cli.Context) error {
			if container, ok := c.App.Metadata["container"].(*app.Container); ok {
				return container.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			submitResultCommand(),
			propagateCommand(),
			syncCommand(),
			leaderboardCommand(),
		},
	}
}

func containerFrom(c *cli.Context) *app.Container {
	container, _ := c.App.Metadata["container"].(*app.Container)
	return container
}

func submitResultCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit-result",
		Usage: "record a final score and score every prediction on the fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fixture", Required: true},
			&cli.IntFlag{Name: "home", Required: true},
			&cli.IntFlag{Name: "away", Required: true},
			&cli.BoolFlag{Name: "overwrite", Usage: "replace an existing result"},
		},
		Action: func(c *cli.Context) error {
			report, err := containerFrom(c).Results.SubmitResult(c.Context, usecase.SubmitResultInput{
				FixtureID: c.String("fixture"),
				HomeScore: c.Int("home"),
				AwayScore: c.Int("away"),
				Overwrite: c.Bool("overwrite"),
			})
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

func propagateCommand() *cli.Command {
	return &cli.Command{
		Name:  "propagate",
		Usage: "re-score the predictions of a fixture from its stored result",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fixture", Required: true},
		},
		Action: func(c *cli.Context) error {
			report, err := containerFrom(c).Results.RepropagateFixture(c.Context, c.String("fixture"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "pull fixtures and finished results from the feed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Value: "all", Usage: "all, fixtures or results"},
		},
		Action: func(c *cli.Context) error {
			syncSvc := containerFrom(c).Sync
			if syncSvc == nil {
				return fmt.Errorf("feed client is disabled; set API_FOOTBALL_ENABLED=true")
			}

			var run func(context.Context) (usecase.SyncReport, error)
			switch c.String("kind") {
			case "all":
				run = syncSvc.SyncAll
			case "fixtures":
				run = syncSvc.SyncUpcomingFixtures
			case "results":
				run = syncSvc.SyncFinishedResults
			default:
				return fmt.Errorf("unknown sync kind %q", c.String("kind"))
			}

			report, err := run(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, report)
		},
	}
}

func leaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "print the standings of a prediction group",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "league", Value: prediction.GlobalLeagueID},
			&cli.IntFlag{Name: "limit", Value: leaderboard.DefaultLimit},
		},
		Action: func(c *cli.Context) error {
			entries, err := containerFrom(c).Leaderboard.Leaderboard(c.Context, c.String("league"), c.Int("limit"))
			if err != nil {
				return err
			}
			return printLeaderboard(c.App.Writer, entries)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	payload, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func printLeaderboard(w io.Writer, entries []leaderboard.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tPOINTS\tPREDICTIONS")
	for _, entry := range entries {
		name := entry.DisplayName
		if name == "" {
			name = entry.UserID
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", entry.Rank, name, entry.TotalPoints, entry.PredictionCount)
	}
	return tw.Flush()
}
