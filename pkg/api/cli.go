package api

import (
	"github.com/trackforge/trackforge/pkg/database"
	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/redis_client"
	"github.com/trackforge/trackforge/pkg/resultcache"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the processed tracks web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to an engine config file",
					},
				},
				Action: func(c *cli.Context) error {
					config := engine.DefaultConfig()
					if c.String("config") != "" {
						var err error
						config, err = engine.LoadConfig(c.String("config"))
						if err != nil {
							return err
						}
					}

					eng, err := engine.New(config)
					if err != nil {
						return err
					}

					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					resultcache.Create()

					SetupServer(c.String("listen"), eng)

					return nil
				},
			},
		},
	}
}
