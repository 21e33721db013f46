package sdk

import "github.com/aretw0/pipebuilder/pkg/domain"

// User is a platform account.
type User struct {
	Name       string `json:"name"`
	UID        string `json:"uid"`
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	OrgName    string `json:"org_name,omitempty"`
	Role       string `json:"role,omitempty"`
	CreateTime string `json:"create_time,omitempty"`
	UpdateTime string `json:"update_time,omitempty"`
}

// APIToken is a personal access token record.
type APIToken struct {
	Name        string `json:"name"`
	UID         string `json:"uid"`
	ID          string `json:"id"`
	State       string `json:"state"`
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token,omitempty"`
	LastUseTime string `json:"last_use_time,omitempty"`
	ExpireTime  string `json:"expire_time,omitempty"`
	CreateTime  string `json:"create_time,omitempty"`
}

// Organization is a group account.
type Organization struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
	ID   string `json:"id"`
}

// Membership links a user and an organization.
type Membership struct {
	Name         string        `json:"name,omitempty"`
	Role         string        `json:"role"`
	State        string        `json:"state"`
	User         *User         `json:"user,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
}

// DefinitionSpec carries the component schemas of a definition.
type DefinitionSpec struct {
	ComponentSpecification map[string]any `json:"component_specification,omitempty"`
	ResourceSpecification  map[string]any `json:"resource_specification,omitempty"`
	DataSpecifications     map[string]any `json:"data_specifications,omitempty"`
}

// Definition describes a connector or operator type.
type Definition struct {
	Name          string         `json:"name"`
	UID           string         `json:"uid"`
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Documentation string         `json:"documentation_url,omitempty"`
	Icon          string         `json:"icon,omitempty"`
	Type          string         `json:"type,omitempty"`
	Tombstone     bool           `json:"tombstone,omitempty"`
	Public        bool           `json:"public,omitempty"`
	Spec          DefinitionSpec `json:"spec"`
}

// Pipeline is a stored pipeline.
type Pipeline struct {
	Name        string         `json:"name"`
	UID         string         `json:"uid"`
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Recipe      *domain.Recipe `json:"recipe,omitempty"`
	Visibility  string         `json:"visibility,omitempty"`
	CreateTime  string         `json:"create_time,omitempty"`
	UpdateTime  string         `json:"update_time,omitempty"`
}

// PipelinesPage is one page of ListPipelines.
type PipelinesPage struct {
	Pipelines     []Pipeline `json:"pipelines"`
	NextPageToken string     `json:"next_page_token"`
	TotalSize     int        `json:"total_size"`
}

// Connector is a configured connector resource owned by a user.
type Connector struct {
	Name                    string         `json:"name"`
	UID                     string         `json:"uid"`
	ID                      string         `json:"id"`
	ConnectorDefinitionName string         `json:"connector_definition_name"`
	ConnectorType           string         `json:"connector_type"`
	State                   string         `json:"state"`
	Description             string         `json:"description,omitempty"`
	Configuration           map[string]any `json:"configuration,omitempty"`
	ConnectorDefinition     *Definition    `json:"connector_definition,omitempty"`
}

// WatchState is the live state of a connector.
type WatchState struct {
	State    string `json:"state"`
	Progress int    `json:"progress,omitempty"`
}

// Operation is a long-running backend operation.
type Operation struct {
	Name  string         `json:"name"`
	Done  bool           `json:"done"`
	Error map[string]any `json:"error,omitempty"`
}

// Visibility filters ListPipelines.
type Visibility string

const (
	VisibilityUnspecified Visibility = ""
	VisibilityPublic      Visibility = "VISIBILITY_PUBLIC"
	VisibilityPrivate     Visibility = "VISIBILITY_PRIVATE"
)

// PipelinesQuery selects one page of pipelines.
type PipelinesQuery struct {
	PageSize   int
	PageToken  string
	Visibility Visibility
	Filter     string
}
