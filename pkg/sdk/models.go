package sdk

import (
	"context"
	"net/http"
)

// UndeployModel takes the model with resource name modelName offline.
func (c *Client) UndeployModel(ctx context.Context, modelName string) (*Operation, error) {
	if modelName == "" {
		return nil, missing("model_name")
	}
	var resp struct {
		Operation Operation `json:"operation"`
	}
	err := c.do(ctx, http.MethodPost, "/{model}/undeploy", resourcePath(modelName, "undeploy"), nil, struct{}{}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Operation, nil
}
