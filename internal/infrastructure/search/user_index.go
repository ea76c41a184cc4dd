package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// Document is what gets stored per user. The password hash is never indexed.
type Document struct {
	ID          int64  `json:"id"`
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	DataCriacao string `json:"dataCriacao"`
}

// UserIndex keeps a searchable copy of users in Elasticsearch.
// A nil client turns every call into a no-op.
type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

func (x *UserIndex) Enabled() bool {
	return x != nil && x.es != nil && x.index != ""
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "nome":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "email":       {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "dataCriacao": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	if !x.Enabled() {
		return nil
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("es exists %s: %w", x.index, err)
	}
	_ = exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(indexMapping)}.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("es create %s: %w", x.index, err)
	}
	defer func() { _ = res.Body.Close() }()
	// 400 resource_already_exists_exception when another instance won the race
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("es create %s: %s", x.index, res.Status())
	}
	return nil
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	if !x.Enabled() {
		return nil
	}
	b, err := json.Marshal(Document{
		ID:          u.ID(),
		Nome:        u.Name(),
		Email:       u.Email(),
		DataCriacao: u.CreatedAt().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: strconv.FormatInt(u.ID(), 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Remove deletes the document. A missing document is not an error.
func (x *UserIndex) Remove(ctx context.Context, id int64) error {
	if !x.Enabled() {
		return nil
	}
	req := esapi.DeleteRequest{Index: x.index, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match on nome and email. size is clamped to 1..50, default 10.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]Document, error) {
	if !x.Enabled() {
		return []Document{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "nome"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
