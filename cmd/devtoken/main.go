package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:  "devtoken",
		Usage: "mint a JWT for local testing, signed with jwt.secret",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user id, a new ObjectID when empty"},
			&cli.IntFlag{Name: "hours", Usage: "lifetime of the token", Value: cfg.JWT.Expiration},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			userID := cmd.String("user")
			if userID == "" {
				userID = primitive.NewObjectID().Hex()
			}

			token, err := auth.GenerateJWT(userID, cfg.JWT.Secret, cmd.Int("hours"))
			if err != nil {
				return fmt.Errorf("error generating token: %w", err)
			}

			fmt.Printf("User ID: %s\n", userID)
			fmt.Printf("Valid JWT token:\n%s\n", token)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
