/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package link

import (
	"context"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/models"
	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/storagemodels"
)

const (
	DefaultDatabase  = "production"
	DefaultContainer = "items"
)

var newID = uuid.NewString

// Service stores links in the Link partition of a shared container.
type Service struct {
	dao     *docstore.DAO
	formats strfmt.Registry
}

// New creates a service on the default database and container.
func New(client datastore.Client, opts ...docstore.Option) *Service {
	return NewWithDAO(docstore.NewWithClient(client, DefaultDatabase, DefaultContainer, opts...))
}

// NewWithDAO creates a service on an existing DAO.
func NewWithDAO(dao *docstore.DAO) *Service {
	return &Service{dao: dao, formats: strfmt.Default}
}

// DAO returns the underlying DAO.
func (s *Service) DAO() *docstore.DAO {
	return s.dao
}

// Create stores a new link to url.
func (s *Service) Create(ctx context.Context, url strfmt.URI) (*models.Link, error) {
	id := strfmt.UUID(newID())
	link := &models.Link{ID: &id, URL: &url}
	if err := link.Validate(s.formats); err != nil {
		return nil, err
	}

	doc, err := s.dao.Create(ctx, storagemodels.Document{
		storagemodels.FieldID:           id.String(),
		storagemodels.FieldPartitionKey: models.TypeLink,
		storagemodels.FieldType:         models.TypeLink,
		"url":                           url.String(),
	})
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// Get reads a link by id.
func (s *Service) Get(ctx context.Context, id strfmt.UUID) (*models.Link, error) {
	doc, err := s.dao.GetRecord(ctx, id.String(), models.TypeLink)
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// Update replaces the URL of an existing link.
func (s *Service) Update(ctx context.Context, upd models.LinkUpdate) (*models.Link, error) {
	if err := upd.Validate(s.formats); err != nil {
		return nil, err
	}
	doc, err := s.dao.Update(ctx, storagemodels.Document{
		storagemodels.FieldID: upd.ID.String(),
		"url":                 upd.URL.String(),
	}, models.TypeLink)
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// Delete soft-deletes a link. It stays readable until the store expires it.
func (s *Service) Delete(ctx context.Context, id strfmt.UUID) (*models.Link, error) {
	doc, err := s.dao.Delete(ctx, storagemodels.Document{
		storagemodels.FieldID:           id.String(),
		storagemodels.FieldPartitionKey: models.TypeLink,
	})
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// Search finds links whose fields match filter.
func (s *Service) Search(ctx context.Context, filter map[string]any, page *storagemodels.Page, sort *storagemodels.Sort) ([]*models.Link, error) {
	return docstore.SearchAs[*models.Link](ctx, s.dao, query.SearchOptions{
		Type: models.TypeLink,
		Item: filter,
		Page: page,
		Sort: sort,
	})
}

// List returns links newest first.
func (s *Service) List(ctx context.Context, offset, count int) ([]*models.Link, error) {
	lit, err := query.NewQueryBuilder(models.TypeLink).
		Where(storagemodels.FieldType).Eq(query.TypeParameter).
		OrderBy(storagemodels.FieldCreatedOn, storagemodels.Descending).
		Paginate(offset, count).
		Build(query.Param(query.TypeParameter, models.TypeLink))
	if err != nil {
		return nil, err
	}
	return docstore.QueryAs[*models.Link](ctx, s.dao, lit)
}

func decode(doc storagemodels.Document) (*models.Link, error) {
	return docstore.As[*models.Link](doc)
}
