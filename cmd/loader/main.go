package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"AfriPulse/internal/domain/models"
	"AfriPulse/pkg/config"
	pkgkafka "AfriPulse/pkg/kafka"
)

// loader backfills the ingest topic from a CSV dump so a fresh environment
// can be populated without the upstream fetcher. Expected columns:
// country,year,indicator,value,observed — an empty value marks an
// explicitly absent cell.

type ingestRow struct {
	Country  string   `json:"country"`
	Year     int      `json:"year"`
	Value    *float64 `json:"value"`
	Observed bool     `json:"observed"`
}

type ingestMessage struct {
	Indicator string      `json:"indicator"`
	Rows      []ingestRow `json:"rows"`
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	inputPath := flag.String("input", "", "observations CSV file")
	batchSize := flag.Int("batch", 500, "rows per message")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing -input")
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rows, err := loadRows(*inputPath)
	if err != nil {
		log.Fatalf("load %s: %v", *inputPath, err)
	}

	sent := 0
	for indicator, batch := range rows {
		for start := 0; start < len(batch); start += *batchSize {
			end := start + *batchSize
			if end > len(batch) {
				end = len(batch)
			}
			msg := ingestMessage{Indicator: indicator, Rows: batch[start:end]}
			if err := producer.Publish(ctx, cfg.Kafka.Topic, []byte(indicator), msg); err != nil {
				log.Fatalf("publish %s: %v", indicator, err)
			}
			sent += end - start
		}
	}
	log.Printf("published %d observations across %d indicators to %s", sent, len(rows), cfg.Kafka.Topic)
}

// loadRows parses the CSV and groups rows per indicator.
func loadRows(path string) (map[string][]ingestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5

	out := make(map[string][]ingestRow)
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && rec[0] == "country" {
			continue // header
		}

		year, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: year %q: %w", line, rec[1], err)
		}
		indicator := rec[2]
		if !models.KnownIndicator(indicator) {
			return nil, fmt.Errorf("line %d: unknown indicator %q", line, indicator)
		}

		row := ingestRow{Country: rec[0], Year: year}
		if rec[3] != "" {
			v, err := strconv.ParseFloat(rec[3], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: value %q: %w", line, rec[3], err)
			}
			row.Value = &v
		}
		row.Observed, _ = strconv.ParseBool(rec[4])

		out[indicator] = append(out[indicator], row)
	}
	return out, nil
}
