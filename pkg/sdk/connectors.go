package sdk

import (
	"context"
	"net/url"
)

// ConnectorTypeAll lists connectors of every type.
const ConnectorTypeAll = "all"

// ListUserConnectors returns every connector owned by userName. A connectorType
// other than "" or ConnectorTypeAll narrows the list.
func (c *Client) ListUserConnectors(ctx context.Context, userName, connectorType string) ([]Connector, error) {
	if _, err := c.token(); err != nil {
		return nil, err
	}
	if userName == "" {
		return nil, missing("user_name")
	}
	query := url.Values{"view": {"VIEW_FULL"}}
	if connectorType != "" && connectorType != ConnectorTypeAll {
		query.Set("filter", "connector_type="+connectorType)
	}
	var connectors []Connector
	path := resourcePath(userName, "connectors")
	err := c.pages(ctx, query, func(q url.Values) (string, error) {
		var page struct {
			Connectors    []Connector `json:"connectors"`
			NextPageToken string      `json:"next_page_token"`
		}
		if err := c.get(ctx, "/{user}/connectors", path, q, &page); err != nil {
			return "", err
		}
		connectors = append(connectors, page.Connectors...)
		return page.NextPageToken, nil
	})
	if err != nil {
		return nil, err
	}
	return connectors, nil
}

// WatchConnector returns the live state of the connector with resource name connectorName.
func (c *Client) WatchConnector(ctx context.Context, connectorName string) (*WatchState, error) {
	if connectorName == "" {
		return nil, missing("connector_name")
	}
	var state WatchState
	if err := c.get(ctx, "/{connector}/watch", resourcePath(connectorName, "watch"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// WatchConnectors returns the live state of each connector, keyed by name.
// Connectors whose watch call fails are reported with state STATE_ERROR.
func (c *Client) WatchConnectors(ctx context.Context, connectorNames []string) (map[string]WatchState, error) {
	if _, err := c.token(); err != nil {
		return nil, err
	}
	states := make(map[string]WatchState, len(connectorNames))
	for _, name := range connectorNames {
		state, err := c.WatchConnector(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("failed to watch connector", "connector", name, "error", err)
			states[name] = WatchState{State: "STATE_ERROR"}
			continue
		}
		states[name] = *state
	}
	return states, nil
}
