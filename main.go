package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quantmill/tcnsignal/dataset"
	"github.com/quantmill/tcnsignal/series"
	"github.com/quantmill/tcnsignal/train"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
}

func run(log zerolog.Logger) error {
	// .env is optional; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	configPath := flag.String("config", "", "path to YAML training config (defaults apply if omitted)")
	csvPath := flag.String("csv", "", "path to OHLCV bars CSV (time,open,high,low,close,volume)")
	symbol := flag.String("symbol", "", "symbol to fetch from Alpaca when no CSV is given")
	timeframe := flag.String("timeframe", "1Day", "bar timeframe for Alpaca fetches (1Min, 1Hour, 1Day)")
	days := flag.Int("days", 365, "how many days of history to fetch from Alpaca")
	outDir := flag.String("out", "artifacts", "directory for model and scaler artifacts")
	alpacaKey := flag.String("alpaca-key", "", "Alpaca API key (overrides ALPACA_API_KEY)")
	alpacaSecret := flag.String("alpaca-secret", "", "Alpaca secret key (overrides ALPACA_SECRET_KEY)")
	flag.Parse()

	cfg := train.DefaultConfig()
	if *configPath != "" {
		loaded, err := train.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded training config")
	}

	bars, err := loadBars(log, *csvPath, *symbol, *timeframe, *days, *alpacaKey, *alpacaSecret)
	if err != nil {
		return err
	}
	log.Info().Int("bars", len(bars)).Msg("bars loaded")

	result, err := train.Train(series.FrameFromBars(bars), cfg, log)
	if err != nil {
		return err
	}
	if err := train.SaveArtifacts(*outDir, result); err != nil {
		return err
	}
	log.Info().
		Str("dir", *outDir).
		Float64("final_train_loss", result.TrainLoss[len(result.TrainLoss)-1]).
		Msg("artifacts written")
	return nil
}

func loadBars(log zerolog.Logger, csvPath, symbol, timeframe string, days int, key, secret string) ([]series.Bar, error) {
	if csvPath != "" {
		log.Info().Str("path", csvPath).Msg("loading bars from CSV")
		return dataset.LoadCSV(csvPath)
	}

	if symbol == "" {
		return nil, fmt.Errorf("either -csv or -symbol is required")
	}
	if key == "" {
		key = os.Getenv("ALPACA_API_KEY")
	}
	if secret == "" {
		secret = os.Getenv("ALPACA_SECRET_KEY")
	}
	if key == "" || secret == "" {
		return nil, fmt.Errorf("Alpaca credentials missing: set ALPACA_API_KEY and ALPACA_SECRET_KEY or pass -alpaca-key/-alpaca-secret")
	}

	tf, err := dataset.ParseTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	log.Info().
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Time("start", start).
		Time("end", end).
		Msg("fetching bars from Alpaca")
	return dataset.NewAlpacaSource(key, secret).Bars(symbol, tf, start, end)
}
