package security

import "strings"

// OutputDir is the directory every generated project lives under.
const OutputDir = "output"

// ResolveOutputPath rewrites a model-supplied path so it lands inside
// output/<project>/. The result uses forward slashes and is stable under
// repeated application.
func ResolveOutputPath(p, project string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") || strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(strings.TrimPrefix(p, "./"), "/")
	}

	if project == "" {
		if p == "" || p == OutputDir {
			return OutputDir
		}
		if strings.HasPrefix(p, OutputDir+"/") {
			return p
		}
		return OutputDir + "/" + p
	}

	base := OutputDir + "/" + project
	switch {
	case p == "" || p == OutputDir || p == project:
		return base
	case strings.HasPrefix(p, base+"/") || p == base:
		return p
	case strings.HasPrefix(p, OutputDir+"/"):
		// output/<file> and output/<other>/... both belong to the active project
		return base + "/" + strings.TrimPrefix(p, OutputDir+"/")
	case strings.HasPrefix(p, project+"/"):
		return OutputDir + "/" + p
	default:
		return base + "/" + p
	}
}

// ValidProjectName reports whether name is a single directory under
// output/ and cannot climb out of it.
func ValidProjectName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, "/\\\x00")
}

// ProjectFromPath returns the project segment of an
// output/<project>/<file> path. A file directly under output/ has no
// project.
func ProjectFromPath(p string) string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == OutputDir && ValidProjectName(parts[i+1]) && parts[i+2] != "" {
			return parts[i+1]
		}
	}
	return ""
}
