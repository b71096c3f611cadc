package main

import (
	"log"
	"os"
	"time"

	_ "net/http/pprof"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"
)

func backendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "env-file",
			Value:     ".env",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "regions",
			Usage:     "region table json file, built-in Uganda table when empty",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "streets",
			Aliases:   []string{"s"},
			Usage:     "named streets file written by import-streets, ignored with postgres",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "snapshot",
			Usage:     "placeholder street snapshot, loaded on start and saved on exit",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "algorithm",
			Usage: "address algorithm version (v1, v2)",
		},
	}
}

func main() {
	app := &cli.App{
		Name:        "communityaddr",
		Description: "Community address assignment for buildings without official addresses",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the community address api",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name: "listen",
					},
				}, backendFlags()...),
				Action: serve,
			},
			{
				Name:  "assign",
				Usage: "assign a community address to one coordinate",
				Flags: append([]cli.Flag{
					&cli.Float64Flag{
						Name:     "lat",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "lon",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "region code overriding classification",
					},
				}, backendFlags()...),
				Action: assign,
			},
			{
				Name:    "import-streets",
				Aliases: []string{"i"},
				Usage:   "imports named streets from osm pbf files or overpass",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "env-file",
						Value:     ".env",
						TakesFile: true,
					},
					&cli.StringSliceFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "overpass-bbox",
						Usage: "min_lon,min_lat,max_lon,max_lat",
					},
					&cli.StringFlag{
						Name: "overpass-endpoint",
					},
					&cli.DurationFlag{
						Name:  "overpass-timeout",
						Value: 3 * time.Minute,
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						Usage:     "streets file (.geojson or .geojson.zst)",
						TakesFile: true,
					},
					&cli.BoolFlag{
						Name:  "postgres",
						Usage: "upsert streets into the configured postgres database",
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringFlag{
						Name:        "preferred-localization",
						Aliases:     []string{"l"},
						DefaultText: "official",
						Value:       "official",
					},
					&cli.StringFlag{
						Name:      "stats",
						Usage:     "write a resource usage report to this file",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
					&cli.BoolFlag{
						Name:        "pprof.profile",
						DefaultText: "",
					},
				},
				Action: importStreets,
			},
			{
				Name:  "regions",
				Usage: "exports regions and subregions as geojson and shapefiles",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "regions",
						TakesFile: true,
					},
					&cli.IntFlag{
						Name:  "level",
						Usage: "1 for regions, 2 for subregions",
						Value: 2,
					},
					&cli.StringFlag{
						Name:      "geojson",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "shapefile-dir",
						TakesFile: true,
					},
				},
				Action: exportRegions,
			},
			{
				Name:  "snapshot",
				Usage: "prints a placeholder street snapshot as geojson lines",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "snapshot",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "env-file",
						Value:     ".env",
						TakesFile: true,
					},
					&cli.BoolFlag{
						Name:  "from-postgres",
						Usage: "write the snapshot from the placeholder streets in postgres instead",
					},
				},
				Action: snapshot,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
