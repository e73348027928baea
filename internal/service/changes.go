package service

import (
	"encoding/json"

	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/queue"
)

// Changes diffs two JSON-serializable values field by field.  Every field of
// after is reported, changed or not.  A nil before yields old=null for all
// fields.
func Changes(before, after interface{}) (map[string]queue.FieldChange, error) {
	newFields, err := fields(after)
	if err != nil {
		return nil, err
	}
	oldFields := map[string]interface{}{}
	if before != nil {
		if oldFields, err = fields(before); err != nil {
			return nil, err
		}
	}

	out := make(map[string]queue.FieldChange, len(newFields))
	for name, v := range newFields {
		out[name] = queue.FieldChange{Old: oldFields[name], New: v}
	}
	return out, nil
}

func fields(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Annotate(err, "encode record")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Annotate(err, "decode record")
	}
	return m, nil
}
