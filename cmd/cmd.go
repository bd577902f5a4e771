// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// runCommand handles run fetching and cache warming
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Production run operations",
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Fetch a run's full detail (network-first, cache fallback)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "number",
						Aliases:  []string{"n"},
						Usage:    "Run number to fetch",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.RunFetch,
			},
			{
				Name:  "prefetch",
				Usage: "Warm the offline cache for a list of runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "numbers",
						Usage:    "Comma-separated run numbers",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Backend requests per second",
						Value: 5,
					},
				},
				Action: r.RunPrefetch,
			},
		},
	}
}

// scaleCommand handles live scale stream operations
func scaleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scale",
		Usage: "Bench scale stream operations",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Watch a scale's live weight stream",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "class",
						Usage:   "Scale class: small or big",
						Value:   "small",
						Aliases: []string{"s"},
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Override the stream base URL",
					},
					&cli.FloatFlag{
						Name:  "refresh",
						Usage: "Maximum snapshot prints per second",
						Value: 4,
					},
				},
				Action: r.ScaleWatch,
			},
		},
	}
}

// cacheCommand handles offline run cache inspection
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the offline run cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached runs, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "stats",
				Usage:  "Show cache statistics",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Empty the cache",
				Action: r.CacheClear,
			},
		},
	}
}
