package api

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// AddQueryParam styles value as a form-exploded query parameter and appends it to q.
func AddQueryParam(q url.Values, name string, value any) error {
	queryFrag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("styling query parameter %s: %w", name, err)
	}

	parsed, err := url.ParseQuery(queryFrag)
	if err != nil {
		return fmt.Errorf("parsing query parameter %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return nil
}

// AddOptionalQueryParam is AddQueryParam for string parameters that are omitted when empty.
func AddOptionalQueryParam(q url.Values, name, value string) error {
	if value == "" {
		return nil
	}
	return AddQueryParam(q, name, value)
}
