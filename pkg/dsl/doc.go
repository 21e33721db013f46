/*
Package dsl provides a fluent Go API for writing pipeline recipes.

It is an alternative to YAML or JSON recipe files, useful for generated
pipelines, tests and examples. Components keep the order they were added in.

Example usage:

	b := dsl.New()

	b.Start().Field("text", "string", "Text")

	b.Add("ai_openai_0", "connector-definitions/ai-openai").
		Task("TASK_TEXT_GENERATION").
		Ref("input.prompt", "start.text").
		Resource("connectors/openai")

	b.End().Output("answer", "ai_openai_0.output.texts")

	recipe, err := b.Build()
	// ... pass recipe to Builder.LoadRecipe or a RecipeStore
*/
package dsl
