package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ListPipelines returns one page of pipelines visible to the caller.
// Follow NextPageToken to load more.
func (c *Client) ListPipelines(ctx context.Context, q PipelinesQuery) (*PipelinesPage, error) {
	query := url.Values{"view": {"VIEW_FULL"}}
	if q.PageSize > 0 {
		query.Set("page_size", fmt.Sprint(q.PageSize))
	}
	if q.PageToken != "" {
		query.Set("page_token", q.PageToken)
	}
	if q.Visibility != VisibilityUnspecified {
		query.Set("visibility", string(q.Visibility))
	}
	if q.Filter != "" {
		query.Set("filter", q.Filter)
	}
	var page PipelinesPage
	if err := c.get(ctx, "/pipelines", "/pipelines", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPipeline returns the pipeline with resource name pipelineName,
// e.g. "users/alice/pipelines/summarize".
func (c *Client) GetPipeline(ctx context.Context, pipelineName string) (*Pipeline, error) {
	if pipelineName == "" {
		return nil, missing("pipeline_name")
	}
	var resp struct {
		Pipeline Pipeline `json:"pipeline"`
	}
	query := url.Values{"view": {"VIEW_FULL"}}
	if err := c.get(ctx, "/{pipeline}", resourcePath(pipelineName), query, &resp); err != nil {
		return nil, err
	}
	return &resp.Pipeline, nil
}

// remarshal converts a decoded JSON fragment into out.
func remarshal(in, out any) error {
	if in == nil {
		return nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
