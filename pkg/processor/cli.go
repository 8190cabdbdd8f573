package processor

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/trackforge/trackforge/pkg/database"
	"github.com/trackforge/trackforge/pkg/elastic_client"
	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func loadEngine(configPath string) (*engine.Engine, error) {
	config := engine.DefaultConfig()

	if configPath != "" {
		var err error
		config, err = engine.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
	}

	return engine.New(config)
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "processor",
		Usage: "Resamples vehicle tracks and derives forensic speeds",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run an instance of the track processor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to an engine config file",
					},
				},
				Action: func(c *cli.Context) error {
					eng, err := loadEngine(c.String("config"))
					if err != nil {
						return err
					}

					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					StartConsumers(eng)

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
			{
				Name:      "queue",
				Usage:     "load csv fix logs and enqueue them for the processor daemon",
				ArgsUsage: "<csv file>...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one csv file required", 1)
					}

					if err := database.Connect(); err != nil {
						return err
					}

					if err := redis_client.Connect(); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(requestQueueName)
					if err != nil {
						return err
					}

					return EnqueueFiles(queue, c.Args().Slice())
				},
			},
			{
				Name:      "file",
				Usage:     "process csv fix logs straight to wire json",
				ArgsUsage: "<csv file or directory>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to an engine config file",
					},
					&cli.StringFlag{
						Name:  "output",
						Value: "output",
						Usage: "directory the wire json is written to",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "print the per-track analysis",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one csv file or directory required", 1)
					}

					eng, err := loadEngine(c.String("config"))
					if err != nil {
						return err
					}

					job := &FileJob{
						Engine:    eng,
						OutputDir: c.String("output"),
						Verbose:   c.Bool("verbose"),
					}

					return job.Run(c.Context, c.Args().Slice())
				},
			},
		},
	}
}
