package sdk

import (
	"context"
	"net/url"
)

// ListConnectorDefinitions returns every connector definition, walking all pages.
// Concurrent calls share one fetch.
func (c *Client) ListConnectorDefinitions(ctx context.Context) ([]Definition, error) {
	return c.listDefinitions(ctx, "/connector-definitions", "connector_definitions")
}

// ListOperatorDefinitions returns every operator definition, walking all pages.
// Concurrent calls share one fetch.
func (c *Client) ListOperatorDefinitions(ctx context.Context) ([]Definition, error) {
	return c.listDefinitions(ctx, "/operator-definitions", "operator_definitions")
}

// GetDefinition returns the full definition with resource name name,
// e.g. "connector-definitions/ai-openai". Concurrent calls for one name share one fetch.
func (c *Client) GetDefinition(ctx context.Context, name string) (*Definition, error) {
	if name == "" {
		return nil, missing("definition_name")
	}
	if _, err := c.token(); err != nil {
		return nil, err
	}
	v, err, _ := c.flights.Do("get:"+name, func() (any, error) {
		var resp map[string]Definition
		query := url.Values{"view": {"VIEW_FULL"}}
		if err := c.get(ctx, "/{definition}", resourcePath(name), query, &resp); err != nil {
			return nil, err
		}
		for _, def := range resp {
			return &def, nil
		}
		return nil, &APIError{StatusCode: 404, Message: "definition " + name + " not found"}
	})
	if err != nil {
		return nil, err
	}
	return v.(*Definition), nil
}

func (c *Client) listDefinitions(ctx context.Context, path, field string) ([]Definition, error) {
	if _, err := c.token(); err != nil {
		return nil, err
	}
	v, err, _ := c.flights.Do("list:"+path, func() (any, error) {
		var defs []Definition
		query := url.Values{"view": {"VIEW_FULL"}}
		err := c.pages(ctx, query, func(q url.Values) (string, error) {
			var page map[string]any
			if err := c.get(ctx, path, path, q, &page); err != nil {
				return "", err
			}
			var items []Definition
			if err := remarshal(page[field], &items); err != nil {
				return "", err
			}
			defs = append(defs, items...)
			next, _ := page["next_page_token"].(string)
			return next, nil
		})
		if err != nil {
			return nil, err
		}
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]Definition(nil), v.([]Definition)...), nil
}
