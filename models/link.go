/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"net/url"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/registry"
)

// TypeLink is the type discriminator and partition key of links.
const TypeLink = "Link"

func init() {
	registry.RegisterType(TypeLink, func() any { return &Link{} })
}

// Link is a stored reference to an external URL.
type Link struct {

	// Unique identifier for the link.
	// Required: true
	// Format: uuid
	ID *strfmt.UUID `json:"id"`

	// Target of the link.
	// Required: true
	// Format: uri
	URL *strfmt.URI `json:"url"`

	// Partition key, always "Link".
	PartitionKey string `json:"_partitionKey,omitempty"`

	// Type discriminator, always "Link".
	Type string `json:"type,omitempty"`

	// Epoch seconds of creation.
	CreatedOn int64 `json:"createdOn,omitempty"`

	// Epoch seconds of the last update.
	UpdatedOn int64 `json:"updatedOn,omitempty"`
}

// Validate checks the required fields and their formats.
func (m *Link) Validate(formats strfmt.Registry) error {
	if err := validateUUID("id", m.ID, formats); err != nil {
		return err
	}
	return validateURI("url", m.URL, formats)
}

// LinkUpdate replaces the URL of an existing link.
type LinkUpdate struct {

	// Identifier of the link to update.
	// Required: true
	// Format: uuid
	ID *strfmt.UUID `json:"id"`

	// New target of the link.
	// Required: true
	// Format: uri
	URL *strfmt.URI `json:"url"`
}

// Validate checks the required fields and their formats.
func (m *LinkUpdate) Validate(formats strfmt.Registry) error {
	if err := validateUUID("id", m.ID, formats); err != nil {
		return err
	}
	return validateURI("url", m.URL, formats)
}

func validateUUID(field string, v *strfmt.UUID, formats strfmt.Registry) error {
	if v == nil {
		return errors.NewValidationError(field, "is required")
	}
	if !formats.Validates("uuid", v.String()) {
		return errors.NewValidationError(field, "must be a uuid")
	}
	return nil
}

func validateURI(field string, v *strfmt.URI, formats strfmt.Registry) error {
	if v == nil {
		return errors.NewValidationError(field, "is required")
	}
	if !formats.Validates("uri", v.String()) {
		return errors.NewValidationError(field, "must be a uri")
	}
	if u, err := url.ParseRequestURI(v.String()); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewValidationError(field, "must be an absolute uri")
	}
	return nil
}
