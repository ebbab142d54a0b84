package inference

import "strings"

// Models lists the default and ordered fallback model identifiers configured
// for one task.
type Models struct {
	Default   string
	Fallbacks []string
}

// Catalog maps each task to its configured model list. It is built once at
// startup and treated as read-only afterwards.
type Catalog map[Task]Models

// Candidate pairs a model identifier with its position in the fallback chain.
// Lower priority is tried first.
type Candidate struct {
	Model    string
	Priority int
}

// Chain resolves the ordered candidate list for a request. A requested model
// is always priority 0, even when the catalog has never heard of it; the
// upstream API is the authority on which models exist. The configured
// fallbacks follow in order with duplicates removed. Without a requested
// model the chain is the task default followed by its fallbacks.
func Chain(task Task, requested string, catalog Catalog) []Candidate {
	requested = strings.TrimSpace(requested)
	models := catalog[task]

	ordered := make([]string, 0, len(models.Fallbacks)+2)
	if requested != "" {
		ordered = append(ordered, requested)
	} else if strings.TrimSpace(models.Default) != "" {
		ordered = append(ordered, strings.TrimSpace(models.Default))
	}
	for _, fallback := range models.Fallbacks {
		fallback = strings.TrimSpace(fallback)
		if fallback != "" {
			ordered = append(ordered, fallback)
		}
	}

	seen := make(map[string]struct{}, len(ordered))
	chain := make([]Candidate, 0, len(ordered))
	for _, model := range ordered {
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}
		chain = append(chain, Candidate{Model: model, Priority: len(chain)})
	}
	return chain
}
