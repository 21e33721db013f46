// Package catalog resolves component definition schemas.
//
// A Catalog sits in front of a ports.DefinitionSource (the backend API through
// ClientSource, a Loam directory, or memory) and caches decoded schemas. A
// definition that cannot be fetched or decoded resolves to nil: the caller
// renders the component as free-form instead of failing.
//
// A source may serve either a bare component specification or a full
// definition document:
//
//	{
//	  "component_specification": { ... },
//	  "data_specifications": { "TASK_X": { "input": { ... }, "output": { ... } } }
//	}
package catalog
