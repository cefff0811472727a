// Package events publishes catalog change events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"catalog-service/internal/models"
)

const (
	streamName         = "CATALOG"
	subjectImportDone  = "catalog.import.completed"
	subjectProductBase = "catalog.product"
	publishTimeout     = 10 * time.Second
)

// Publisher emits catalog events. It is optional: when NATS is not
// configured the service runs without it, and publish failures only log.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// ImportCompletedEvent summarizes one finished import run.
type ImportCompletedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	DryRun    bool      `json:"dryRun"`
	Total     int       `json:"total"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Success   bool      `json:"success"`
}

// ProductEvent describes a single product change.
type ProductEvent struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku"`
	Region    string    `json:"region"`
	Name      string    `json:"name,omitempty"`
}

// NewPublisher connects to NATS and ensures the catalog stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"catalog.>"},
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to ensure catalog stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "catalog-events"),
	}, nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishImportCompleted publishes a catalog.import.completed event.
func (p *Publisher) PublishImportCompleted(report *models.ImportReport, opts models.ImportOptions) {
	p.publish(subjectImportDone, ImportCompletedEvent{
		Timestamp: time.Now().UTC(),
		Mode:      string(opts.Mode),
		DryRun:    opts.DryRun,
		Total:     report.Total,
		Created:   report.Created,
		Updated:   report.Updated,
		Skipped:   report.Skipped,
		Errors:    len(report.Errors),
		Warnings:  len(report.Warnings),
		Success:   report.Success,
	})
}

// PublishProductCreated publishes a catalog.product.created event.
func (p *Publisher) PublishProductCreated(product *models.Product) {
	p.publishProduct("created", product)
}

// PublishProductUpdated publishes a catalog.product.updated event.
func (p *Publisher) PublishProductUpdated(product *models.Product) {
	p.publishProduct("updated", product)
}

// PublishProductDeleted publishes a catalog.product.deleted event.
func (p *Publisher) PublishProductDeleted(product *models.Product) {
	p.publishProduct("deleted", product)
}

func (p *Publisher) publishProduct(change string, product *models.Product) {
	p.publish(fmt.Sprintf("%s.%s", subjectProductBase, change), ProductEvent{
		EventType: fmt.Sprintf("product.%s", change),
		Timestamp: time.Now().UTC(),
		ProductID: product.ID.String(),
		SKU:       product.SKU,
		Region:    product.Region,
		Name:      product.Name,
	})
}

// publish marshals and sends asynchronously so event delivery never blocks
// the request path.
func (p *Publisher) publish(subject string, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(payload)
		if err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
			return
		}
		if _, err := p.js.Publish(ctx, subject, data); err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
		}
	}()
}
