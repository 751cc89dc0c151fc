package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/database"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/users"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	userService := users.NewService(db)

	setRole := func(role string) cli.ActionFunc {
		return func(c *cli.Context) error {
			username := c.Args().First()
			if username == "" {
				return errors.New("a username is required")
			}

			user, err := userService.RetrieveUser(c.Context, users.RetrieveUserOptions{Username: &username})
			if err != nil {
				return errors.WithStack(err)
			}
			if err := userService.SetRole(c.Context, user, role); err != nil {
				return errors.WithStack(err)
			}

			fmt.Printf("%s is now %s\n", user.Username, role)
			return nil
		}
	}

	app := &cli.App{
		Name:  "admin",
		Usage: "CLI to manage administrators",
		Commands: []*cli.Command{
			{
				Name:      "promote",
				Usage:     "make a user an administrator",
				ArgsUsage: "<username>",
				Action:    setRole(models.RoleAdmin),
			},
			{
				Name:      "demote",
				Usage:     "make an administrator a regular user",
				ArgsUsage: "<username>",
				Action:    setRole(models.RoleUser),
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}
