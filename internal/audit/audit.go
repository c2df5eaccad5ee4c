package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/flowfin/auth-service/internal/config"
)

const Index = "auth_events"

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, err
	}

	res, err := client.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.Status())
	}

	return client, nil
}

// Indexer writes security events (logins, failures, logouts) into the
// auth_events index for later inspection.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func (i *Indexer) IndexEvent(ctx context.Context, event map[string]interface{}) error {
	if i == nil || i.ES == nil {
		return nil
	}

	event["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: json.Marshal failed: %w", err)
	}

	res, err := i.ES.Index(i.Index, bytes.NewReader(data), i.ES.Index.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit: index failed: %s", res.Status())
	}
	return nil
}
