package model

import (
	"encoding/json"
	"fmt"
)

// StringOrList decodes a JSON field that may be written as either a bare
// string (a single-token command) or an array of strings, normalizing
// both into a token list.
type StringOrList []string

func (c *StringOrList) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*c = StringOrList{asString}
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("model: cmd must be a string or a list of strings")
	}
	*c = StringOrList(asList)
	return nil
}
