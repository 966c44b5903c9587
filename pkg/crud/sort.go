package crud

import (
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

// Direction is the ordering direction of a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one sort key. An empty Direction sorts ascending.
type Order struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"`
}

// Sort is an ordered list of sort keys; earlier keys take priority.
type Sort []Order

// ParseSort decodes a JSON sort order. Both the list form
// [{"field":"id","direction":"desc"}] and the object form {"id":"desc","name":"asc"}
// are accepted; object keys keep their written order. An empty input yields no ordering.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var (
		orders Sort
		err    error
	)
	if strings.HasPrefix(raw, "{") {
		orders, err = parseSortObject(raw)
	} else {
		err = json.Unmarshal([]byte(raw), &orders)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid order_by format")
	}
	return orders, nil
}

func parseSortObject(raw string) (Sort, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var orders Sort
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var dir string
		if err := dec.Decode(&dir); err != nil {
			return nil, err
		}
		orders = append(orders, Order{Field: keyTok.(string), Direction: Direction(dir)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s Schema) orderClause(orders Sort) string {
	var clauses []string
	for _, o := range orders {
		column, ok := s.Fields[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(string(o.Direction), string(Desc)) {
			dir = "DESC"
		}
		clauses = append(clauses, fmt.Sprintf("%s %s", column, dir))
	}
	if len(clauses) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
