package syncer

import (
	"encoding/json"

	"github.com/fitsyncd/fitsync/pkg/errors"
)

// ToDoc converts a typed entity into the generic document shape used by the
// merge primitives and the remote gateway.
func ToDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode entity")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "could not decode entity into document")
	}
	return doc, nil
}

// FromDoc converts a generic document back into a typed entity.
func FromDoc[T any](doc map[string]interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, errors.Wrap(err, "could not encode document")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errors.Wrap(err, "could not decode document into entity")
	}
	return out, nil
}

// FromDocs converts a document slice into typed entities.
func FromDocs[T any](docs []map[string]interface{}) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := FromDoc[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
