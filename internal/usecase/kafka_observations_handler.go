package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AfriPulse/internal/domain/models"
	domrepo "AfriPulse/internal/domain/repository"
	pkgkafka "AfriPulse/pkg/kafka"
	"AfriPulse/pkg/util"
)

// KafkaObservationsHandler consumes observation batches published by the
// upstream fetcher and writes them to the observation store.
type KafkaObservationsHandler struct {
	topic   string
	store   domrepo.ObservationStore
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, store domrepo.ObservationStore, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema:
// {indicator, rows: [{country, year, value|null, observed}]}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Indicator string `json:"indicator"`
		Rows      []struct {
			Country  string   `json:"country"`
			Year     int      `json:"year"`
			Value    *float64 `json:"value"`
			Observed bool     `json:"observed"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !models.KnownIndicator(m.Indicator) {
		h.metrics.RecordError("consumer_unknown_indicator")
		return fmt.Errorf("unknown indicator %q", m.Indicator)
	}

	obs := make([]models.RawObservation, 0, len(m.Rows))
	for _, row := range m.Rows {
		country, ok := util.NormalizeISO3(row.Country)
		if !ok {
			h.metrics.RecordError("consumer_bad_country")
			continue
		}
		o := models.RawObservation{
			Country:    country,
			Year:       row.Year,
			Indicator:  m.Indicator,
			IsObserved: row.Observed,
		}
		if row.Value != nil {
			o.Value = *row.Value
			o.HasValue = true
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	err := h.store.StoreBatch(ctx, obs)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordIngest(m.Indicator, len(obs))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
