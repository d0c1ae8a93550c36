package adapter

import (
	"regexp"
	"sort"
	"strings"
)

// techKeywords are the technologies we look for in posting text.
var techKeywords = []string{
	"python", "javascript", "typescript", "react", "vue", "angular",
	"node", "go", "golang", "rust", "java", "c++", "cpp", "c#",
	"php", "ruby", "rails", "django", "flask", "fastapi",
	"postgresql", "postgres", "mysql", "mongodb", "redis",
	"aws", "gcp", "azure", "kubernetes", "docker", "terraform",
	"graphql", "rest", "grpc", "microservices", "serverless",
	"svelte", "nextjs", "remix", "elixir", "scala", "kotlin", "swift",
	"tailwind", "bootstrap", "css", "html", "webpack", "vite",
}

// techPatterns match a keyword only when it is not part of a longer token.
// A plain \b does not work for keywords ending in + or #.
var techPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(techKeywords))
	for _, kw := range techKeywords {
		m[kw] = regexp.MustCompile(`(?:^|[^a-z0-9+#])` + regexp.QuoteMeta(kw) + `(?:$|[^a-z0-9+#])`)
	}
	return m
}()

// extractTechStack returns the sorted set of known technologies mentioned in text.
func extractTechStack(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range techKeywords {
		if techPatterns[kw].MatchString(lower) {
			found = append(found, kw)
		}
	}
	sort.Strings(found)
	return found
}
