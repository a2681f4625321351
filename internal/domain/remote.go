package domain

import (
	"context"
	"fmt"
)

// Document is a single record in the remote document store.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Filter narrows a collection query. Op is one of "==", "<", "<=", ">", ">=".
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// RemoteGateway abstracts the remote document store. GetDocument returns
// (nil, nil) when the document does not exist. Reachable reflects the
// connectivity probe taken at construction; remote paths are only attempted
// when both the caller-supplied online flag and Reachable are true.
type RemoteGateway interface {
	GetDocument(ctx context.Context, collectionPath, id string) (*Document, error)
	GetCollection(ctx context.Context, collectionPath string, filters []Filter) ([]Document, error)
	SetDocument(ctx context.Context, collectionPath, id string, data map[string]interface{}) error
	UpdateDocument(ctx context.Context, collectionPath, id string, partial map[string]interface{}) error
	DeleteDocument(ctx context.Context, collectionPath, id string) error
	AddDocument(ctx context.Context, collectionPath string, data map[string]interface{}) (string, error)
	Reachable() bool
}

// UserCollection builds the per-user sub-collection path.
func UserCollection(userID, sub string) string {
	return fmt.Sprintf("users/%s/%s", userID, sub)
}
