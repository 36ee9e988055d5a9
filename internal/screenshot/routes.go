package screenshot

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	routeTagRe  = regexp.MustCompile(`<Route\s+[^>]*path\s*=\s*["']([^"']+)["']`)
	routePathRe = regexp.MustCompile(`path\s*[=:]\s*["']([^"']+)["']`)
)

// ExtractRoutes finds router paths declared in an App component. JSX
// <Route path=...> tags are preferred; any path= or path: literal is the
// fallback. The root route always comes first and duplicates are dropped.
func ExtractRoutes(source string) []string {
	matches := routeTagRe.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		matches = routePathRe.FindAllStringSubmatch(source, -1)
	}

	routes := []string{"/"}
	seen := map[string]bool{"/": true}
	for _, m := range matches {
		r := strings.TrimSpace(m[1])
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		routes = append(routes, r)
	}
	return routes
}

// DiscoverRoutes reads src/App.jsx under projectDir. A project without one
// only has the root route.
func DiscoverRoutes(projectDir string) []string {
	data, err := os.ReadFile(filepath.Join(projectDir, "src", "App.jsx"))
	if err != nil {
		return []string{"/"}
	}
	return ExtractRoutes(string(data))
}

// SafeName turns a route into a file name stem: "/" is "home",
// "/quiz/results" is "quiz_results".
func SafeName(route string) string {
	name := strings.Trim(strings.ReplaceAll(route, "/", "_"), "_")
	if name == "" {
		return "home"
	}
	return strings.NewReplacer(":", "-", "*", "-", "?", "-").Replace(name)
}
