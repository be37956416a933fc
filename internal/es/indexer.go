package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/greencart/backend/internal/models"
)

// ProductIndexer keeps the products index in sync with the catalog.
type ProductIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

func (i *ProductIndexer) IndexProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	res, err := i.Client.Index(
		i.Index,
		bytes.NewReader(data),
		i.Client.Index.WithDocumentID(fmt.Sprint(p.ID)),
		i.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (i *ProductIndexer) RemoveProduct(ctx context.Context, id uint) error {
	res, err := i.Client.Delete(
		i.Index,
		fmt.Sprint(id),
		i.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// 404 means the document was never indexed; nothing to undo.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %d: %s", id, res.Status())
	}
	return nil
}
