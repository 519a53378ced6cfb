package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// params describe one headless game
type params struct {
	Seed         int64
	Players      int
	Years        int
	InitialMoney int
	Difficulty   models.Difficulty
	Verbose      bool
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "play a headless all-CPU game and print the final standings",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "seed of the game, 0 picks one", Value: cfg.Game.Seed},
			&cli.IntFlag{Name: "players", Usage: "number of CPU seats", Value: 4},
			&cli.IntFlag{Name: "years", Usage: "length of the game", Value: cfg.Game.TotalYears},
			&cli.IntFlag{Name: "money", Usage: "initial money per seat", Value: cfg.Game.InitialMoney},
			&cli.StringFlag{Name: "difficulty", Usage: "EASY, NORMAL or HARD", Value: string(models.DifficultyNormal)},
			&cli.StringFlag{Name: "content", Usage: "directory with the content catalogs", Value: cfg.Game.ContentDir},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every turn"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			content, err := catalog.Default()
			if dir := cmd.String("content"); dir != "" {
				content, err = catalog.Load(dir)
			}
			if err != nil {
				return fmt.Errorf("failed to load content: %w", err)
			}

			seed := cmd.Int64("seed")
			if seed == 0 {
				if seed, err = rng.NewSeed(); err != nil {
					return err
				}
			}

			logger := zap.NewNop()
			if cmd.Bool("verbose") {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
				defer logger.Sync()
			}

			_, err = simulate(ctx, content, params{
				Seed:         seed,
				Players:      cmd.Int("players"),
				Years:        cmd.Int("years"),
				InitialMoney: cmd.Int("money"),
				Difficulty:   models.Difficulty(strings.ToUpper(cmd.String("difficulty"))),
				Verbose:      cmd.Bool("verbose"),
			}, logger.Sugar(), os.Stdout)
			return err
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// simulate plays every turn of a CPU-only game and writes the standings
func simulate(ctx context.Context, content *catalog.Content, p params, logger *zap.SugaredLogger, out io.Writer) ([]economy.Standing, error) {
	if p.Players < 1 {
		return nil, turn.ErrNoSeats
	}
	seats := make([]turn.Seat, p.Players)
	for i := range seats {
		seats[i] = turn.Seat{
			Name:       fmt.Sprintf("CPU %d", i+1),
			Kind:       models.ControlCPU,
			Difficulty: p.Difficulty,
		}
	}

	src := rng.New(p.Seed)
	state, err := turn.NewGame(content, turn.Setup{
		GameID:       fmt.Sprintf("sim-%d", p.Seed),
		Seats:        seats,
		InitialMoney: p.InitialMoney,
		TotalYears:   p.Years,
	}, src)
	if err != nil {
		return nil, err
	}
	orchestrator := turn.New(content, src, logger, turn.Options{})

	fmt.Fprintf(out, "Seed %d, %d players, %d years\n", p.Seed, p.Players, state.TotalYears)
	for {
		next, report, err := orchestrator.PlayTurn(ctx, state, nil)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", state.Turn, err)
		}
		state = next
		if p.Verbose {
			fmt.Fprintf(out, "Y%d M%d %-6s rolled %2d -> %s\n", report.Year, report.Month, report.PlayerID, report.Roll, state.Player(report.PlayerID).Position)
		}
		if report.GameOver {
			writeStandings(out, report.Standings)
			return report.Standings, nil
		}
	}
}

func writeStandings(out io.Writer, standings []economy.Standing) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tASSETS\tMONEY")
	for _, s := range standings {
		fmt.Fprintf(tw, "%d.\t%s\t%d\t%d\n", s.Rank, s.Name, s.TotalAssets, s.Money)
	}
	tw.Flush()
}
