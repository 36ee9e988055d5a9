package tools

import (
	"fmt"
	"strings"
)

// UnknownToolError reports a call to a tool that does not exist.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool '%s'", e.Name)
}

// ArgumentError reports missing or malformed arguments.
type ArgumentError struct {
	Tool    string
	Missing []string
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("Missing required keys: [%s]", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("Invalid argument %s: %s", e.Field, e.Message)
}

// requiredKeys lists the arguments each tool cannot run without.
var requiredKeys = map[string][]string{
	ToolCreateFile:          {"path", "content"},
	ToolReadFile:            {"path"},
	ToolListFiles:           {"directory"},
	ToolRunCommand:          {"command"},
	ToolSearchMemory:        {"query"},
	ToolSaveMemory:          {"category", "key", "data"},
	ToolPlanTasks:           {"tasks"},
	ToolPreviewApp:          {"path"},
	ToolValidateScreenshots: {"project_name"},
}

// ParseCall converts a model function call into a typed Call. It never
// panics on malformed input.
func ParseCall(name string, args map[string]any) (Call, error) {
	if args == nil {
		args = map[string]any{}
	}

	var missing []string
	for _, key := range requiredKeys[name] {
		if _, ok := args[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		if _, known := parsers[name]; known {
			return nil, &ArgumentError{Tool: name, Missing: missing}
		}
	}

	parse, ok := parsers[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	p := argParser{tool: name, args: args}
	call := parse(&p)
	if p.err != nil {
		return nil, p.err
	}
	return call, nil
}

var parsers = map[string]func(p *argParser) Call{
	ToolCreateFile: func(p *argParser) Call {
		return CreateFile{Path: p.str("path"), Content: p.str("content")}
	},
	ToolCreateFiles: func(p *argParser) Call {
		var files []FileSpec
		for i, item := range p.objects("files") {
			spec := FileSpec{}
			if v, ok := item["path"].(string); ok {
				spec.Path = v
			}
			if v, ok := item["content"].(string); ok {
				spec.Content = v
			} else if item["content"] != nil {
				p.fail(fmt.Sprintf("files[%d].content", i), "must be a string")
			}
			files = append(files, spec)
		}
		return CreateFiles{Files: files}
	},
	ToolReadFile: func(p *argParser) Call {
		return ReadFile{Path: p.str("path")}
	},
	ToolListFiles: func(p *argParser) Call {
		return ListFiles{Directory: p.str("directory")}
	},
	ToolRunCommand: func(p *argParser) Call {
		return RunCommand{Command: p.str("command")}
	},
	ToolSearchMemory: func(p *argParser) Call {
		category := p.str("category")
		if category == "" {
			category = "all"
		}
		return SearchMemory{Query: p.str("query"), Category: category}
	},
	ToolSaveMemory: func(p *argParser) Call {
		return SaveMemory{Category: p.str("category"), Key: p.str("key"), Data: p.args["data"]}
	},
	ToolPlanTasks: func(p *argParser) Call {
		var tasks []PlanTaskSpec
		for _, item := range p.objects("tasks") {
			t := PlanTaskSpec{}
			t.ID, _ = item["id"].(string)
			t.Description, _ = item["description"].(string)
			t.Status, _ = item["status"].(string)
			t.DependsOn = stringSlice(item["depends_on"])
			tasks = append(tasks, t)
		}
		return PlanTasks{Tasks: tasks}
	},
	ToolPreviewApp: func(p *argParser) Call {
		return PreviewApp{Path: p.str("path")}
	},
	ToolAskUser: func(p *argParser) Call {
		return AskUser{Question: p.str("question")}
	},
	ToolFetchFigmaDesign: func(p *argParser) Call {
		return FetchFigmaDesign{PageName: p.str("page_name")}
	},
	ToolValidateScreenshots: func(p *argParser) Call {
		return ValidateScreenshots{ProjectName: p.str("project_name"), Routes: p.strings("routes")}
	},
	ToolAnalyzeFlow: func(p *argParser) Call {
		return AnalyzeFlow{}
	},
	ToolFetchFigmaMCP: func(p *argParser) Call {
		return FetchFigmaMCP{FigmaURL: p.str("figma_url"), NodeID: p.str("node_id"), PageName: p.str("page_name")}
	},
	ToolCheckExistingProjects: func(p *argParser) Call {
		return CheckExistingProjects{}
	},
}

// argParser extracts typed values and keeps the first type error.
type argParser struct {
	tool string
	args map[string]any
	err  error
}

func (p *argParser) fail(field, msg string) {
	if p.err == nil {
		p.err = &ArgumentError{Tool: p.tool, Field: field, Message: msg}
	}
}

// str returns a string argument; absent or null yields "".
func (p *argParser) str(key string) string {
	v, ok := p.args[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		p.fail(key, "must be a string")
	}
	return s
}

func (p *argParser) strings(key string) []string {
	v, ok := p.args[key]
	if !ok || v == nil {
		return nil
	}
	if _, isList := v.([]any); !isList {
		if _, isStrings := v.([]string); !isStrings {
			p.fail(key, "must be an array of strings")
			return nil
		}
	}
	return stringSlice(v)
}

func (p *argParser) objects(key string) []map[string]any {
	v, ok := p.args[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		p.fail(key, "must be an array")
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			p.fail(fmt.Sprintf("%s[%d]", key, i), "must be an object")
			continue
		}
		out = append(out, m)
	}
	return out
}

func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
