package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/schema"
)

// DefinitionMarkdown describes a definition's configuration fields and task outputs.
// Conditional fields are shown for the first branch of each condition.
func DefinitionMarkdown(entry *catalog.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", entry.Name)

	if entry.Component == nil {
		b.WriteString("_No component specification: configurations are free-form._\n")
	} else {
		_, fields := schema.Transform(entry.Component, schema.DefaultConditions(entry.Component, nil))
		b.WriteString("## Configuration\n\n")
		writeFields(&b, schema.Flatten(fields))
	}

	if len(entry.Outputs) == 0 {
		return b.String()
	}

	tasks := make([]string, 0, len(entry.Outputs))
	for t := range entry.Outputs {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)

	for _, task := range tasks {
		fmt.Fprintf(&b, "\n## Output of %s\n\n", task)
		_, fields := schema.Transform(entry.Outputs[task], nil, schema.WithReadOnly())
		writeFields(&b, schema.Flatten(fields))
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields []schema.Field) {
	if len(fields) == 0 {
		b.WriteString("_No fields._\n")
		return
	}
	b.WriteString("| Path | Kind | Required | Format | Accepts |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, f := range fields {
		if f.Hidden {
			continue
		}
		required := ""
		if f.Required {
			required = "yes"
		}
		accepts := make([]string, 0, len(f.UpstreamTypes))
		for _, t := range f.UpstreamTypes {
			accepts = append(accepts, string(t))
		}
		fmt.Fprintf(b, "| `%s` | %s | %s | %s | %s |\n",
			f.Path, f.Kind, required, f.InstillFormat, strings.Join(accepts, ", "))
	}
}
