package models

import "encoding/json"

// Criterion is one achievement level within a rubric category. Points are
// instructor-assigned and non-negative with no enforced upper bound.
type Criterion struct {
	Point       float64 `json:"point"`
	Description string  `json:"description"`
}

// Category groups criteria under a named grading topic. Once authoring
// begins a category always holds at least one criterion.
//
// The wire and storage shape names the criteria array "values"; the
// in-memory shape calls it Criteria. The rename happens here, at the JSON
// boundary, so every reader and writer sees a single normalized form.
type Category struct {
	Name     string      `json:"name"`
	Criteria []Criterion `json:"Criteria"`
}

type categoryWire struct {
	Name     string      `json:"name"`
	Values   []Criterion `json:"values"`
	Criteria []Criterion `json:"Criteria,omitempty"`
}

// MarshalJSON emits the wire shape with the criteria array under "values".
func (c Category) MarshalJSON() ([]byte, error) {
	values := c.Criteria
	if values == nil {
		values = []Criterion{}
	}
	return json.Marshal(struct {
		Name   string      `json:"name"`
		Values []Criterion `json:"values"`
	}{Name: c.Name, Values: values})
}

// UnmarshalJSON accepts both the wire key "values" and the client-side key
// "Criteria", preferring "values" when both appear.
func (c *Category) UnmarshalJSON(data []byte) error {
	var wire categoryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.Name = wire.Name
	switch {
	case wire.Values != nil:
		c.Criteria = wire.Values
	case wire.Criteria != nil:
		c.Criteria = wire.Criteria
	default:
		c.Criteria = []Criterion{}
	}

	return nil
}

// Rubric is the ordered category sequence attached to an assignment.
type Rubric []Category
