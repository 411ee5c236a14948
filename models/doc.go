// Package models holds the domain types stored through docstore.
package models
