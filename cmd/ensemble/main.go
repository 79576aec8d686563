// Command ensemble trains and applies ensemble classifiers on CSV files.
//
//	ensemble train --data train.csv --model model.gob --num-models 20 --show-metrics
//	ensemble predict --data test.csv --model model.gob --output scores.csv
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

const (
	// Flags.
	flagLogLevel    = "log-level"
	flagPretty      = "pretty"
	flagData        = "data"
	flagModel       = "model"
	flagParams      = "params"
	flagNumModels   = "num-models"
	flagSampling    = "sampling"
	flagSelector    = "selector"
	flagCombiner    = "combiner"
	flagNormalize   = "normalize"
	flagBatchSize   = "batch-size"
	flagParallel    = "parallel"
	flagSeed        = "seed"
	flagFeature     = "feature"
	flagLabel       = "label"
	flagShowMetrics = "show-metrics"
	flagPlot        = "plot"
	flagOutput      = "output"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ensemble",
		Usage: "train and apply ensembles of logistic regressions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "log level: debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  flagPretty,
				Usage: "human readable console logs instead of JSON lines",
			},
		},
		Before: func(c *cli.Context) error {
			return log.SetupLogger(c.String(flagLogLevel), c.App.ErrWriter, c.Bool(flagPretty))
		},
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "train an ensemble on a CSV file and save it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagData,
						Aliases:  []string{"d"},
						Usage:    "training data `FILE` (CSV, optional header row)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagModel,
						Aliases:  []string{"m"},
						Usage:    "write the fitted model to `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagParams,
						Usage: "JSON `FILE` with estimator parameters; flags override it",
					},
					&cli.IntFlag{
						Name:  flagNumModels,
						Usage: "base learners per batch",
					},
					&cli.StringFlag{
						Name:  flagSampling,
						Usage: "BootstrapSelector, RandomPartitionSelector or AllInstanceSelector",
					},
					&cli.StringFlag{
						Name:  flagSelector,
						Usage: "ClassifierAllSelector, ClassifierBestPerformanceSelector or ClassifierBestDiverseSelector",
					},
					&cli.StringFlag{
						Name:  flagCombiner,
						Usage: "ClassifierMedian, ClassifierAverage, ClassifierVoting, ClassifierWeightedAverage or ClassifierStacking",
					},
					&cli.StringFlag{
						Name:  flagNormalize,
						Usage: "Auto, No, Yes or Warn",
					},
					&cli.IntFlag{
						Name:  flagBatchSize,
						Usage: "rows per training batch, -1 for a single batch",
					},
					&cli.BoolFlag{
						Name:  flagParallel,
						Usage: "train the base learners of a batch concurrently",
					},
					&cli.Int64Flag{
						Name:  flagSeed,
						Usage: "random seed",
					},
					&cli.StringSliceFlag{
						Name:  flagFeature,
						Usage: "feature column, repeatable; defaults to every column but the label",
					},
					&cli.StringFlag{
						Name:  flagLabel,
						Usage: "label column",
					},
					&cli.BoolFlag{
						Name:  flagShowMetrics,
						Usage: "log a per-model metrics table",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "write a sub-model accuracy chart to `FILE` (png, svg, pdf)",
					},
				},
				Action: trainAction,
			},
			{
				Name:  "predict",
				Usage: "score a CSV file with a saved ensemble",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagData,
						Aliases:  []string{"d"},
						Usage:    "input `FILE` (CSV, optional header row)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagModel,
						Aliases:  []string{"m"},
						Usage:    "fitted model `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write predictions to `FILE` instead of stdout",
					},
				},
				Action: predictAction,
			},
		},
	}
}
