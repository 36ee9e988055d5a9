package tools

import (
	"google.golang.org/genai"
)

func stringProp(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func stringArray(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Items:       &genai.Schema{Type: genai.TypeString},
		Description: description,
	}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	if props == nil {
		props = map[string]*genai.Schema{}
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// CreateFileDeclaration returns the declaration for create_file.
func CreateFileDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolCreateFile,
		Description: "Create or overwrite a file at the specified path with the given content. " +
			"Parent directories are created automatically. Use this to generate quiz app files.",
		Parameters: object(map[string]*genai.Schema{
			"path":    stringProp("File path relative to the project root (e.g., 'output/my_quiz/src/App.jsx')"),
			"content": stringProp("The full content to write to the file"),
		}, "path", "content"),
	}
}

// CreateFilesDeclaration returns the declaration for create_files.
func CreateFilesDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolCreateFiles,
		Description: "Create MULTIPLE files in one call. Much faster than calling create_file repeatedly. " +
			"Use this to scaffold an entire React project at once (package.json, vite.config.js, " +
			"index.html, src/main.jsx, src/App.jsx, components, etc.). " +
			"PREFER this over create_file when creating 2+ files.",
		Parameters: object(map[string]*genai.Schema{
			"files": {
				Type: genai.TypeArray,
				Items: object(map[string]*genai.Schema{
					"path":    stringProp("File path relative to project root"),
					"content": stringProp("Full file content"),
				}, "path", "content"),
				Description: "Array of files to create",
			},
		}, "files"),
	}
}

// ReadFileDeclaration returns the declaration for read_file.
func ReadFileDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ToolReadFile,
		Description: "Read the contents of a file. Use this to review generated code or check existing files.",
		Parameters: object(map[string]*genai.Schema{
			"path": stringProp("File path to read"),
		}, "path"),
	}
}

// ListFilesDeclaration returns the declaration for list_files.
func ListFilesDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ToolListFiles,
		Description: "List all files and subdirectories in a directory.",
		Parameters: object(map[string]*genai.Schema{
			"directory": stringProp("Directory path to list (defaults to project root)"),
		}, "directory"),
	}
}

// RunCommandDeclaration returns the declaration for run_command.
func RunCommandDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolRunCommand,
		Description: "Run a shell command. Limited to safe commands only. " +
			"npm install, npm run build are allowed. " +
			"Dev servers (npm run dev, npm start) run in background automatically. " +
			"Do NOT call 'npm run dev' until all files are created and npm install is done.",
		Parameters: object(map[string]*genai.Schema{
			"command": stringProp("Shell command to execute"),
		}, "command"),
	}
}

// SearchMemoryDeclaration returns the declaration for search_memory.
func SearchMemoryDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolSearchMemory,
		Description: "Search past projects, learned patterns, and user preferences. " +
			"Returns relevant matches from the agent's long-term memory.",
		Parameters: object(map[string]*genai.Schema{
			"query": stringProp("Search query (e.g., 'trivia quiz', 'dark theme', 'timer feature')"),
			"category": {
				Type:        genai.TypeString,
				Enum:        []string{"projects", "preferences", "knowledge", "all"},
				Description: "Which memory store to search. Defaults to 'all'.",
			},
		}, "query"),
	}
}

// SaveMemoryDeclaration returns the declaration for save_memory.
func SaveMemoryDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolSaveMemory,
		Description: "Save information to long-term memory for future sessions. " +
			"Use this after completing a project to remember what was built, " +
			"or to save learned patterns and user preferences.",
		Parameters: object(map[string]*genai.Schema{
			"category": {
				Type:        genai.TypeString,
				Enum:        []string{"projects", "preferences", "knowledge"},
				Description: "Which memory store to save to",
			},
			"key":  stringProp("Unique identifier (e.g., project name, preference name)"),
			"data": {Type: genai.TypeObject, Description: "The data to store (any JSON-serializable object)"},
		}, "category", "key", "data"),
	}
}

// PlanTasksDeclaration returns the declaration for plan_tasks.
func PlanTasksDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolPlanTasks,
		Description: "Create or update a task plan for the current project. " +
			"Break down the user's requirements into discrete, ordered tasks.",
		Parameters: object(map[string]*genai.Schema{
			"tasks": {
				Type: genai.TypeArray,
				Items: object(map[string]*genai.Schema{
					"id":          stringProp("Unique task identifier (e.g., 'task_1')"),
					"description": stringProp("What needs to be done"),
					"depends_on":  stringArray("IDs of tasks that must complete first"),
					"status": {
						Type:        genai.TypeString,
						Enum:        []string{"pending", "in_progress", "completed", "failed"},
						Description: "Current status",
					},
				}, "id", "description", "status"),
				Description: "List of tasks",
			},
		}, "tasks"),
	}
}

// PreviewAppDeclaration returns the declaration for preview_app.
func PreviewAppDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ToolPreviewApp,
		Description: "Start the dev server for a generated app so the user can open it in a browser.",
		Parameters: object(map[string]*genai.Schema{
			"path": stringProp("Path to a file in the project (e.g., its package.json or index.html)"),
		}, "path"),
	}
}

// AskUserDeclaration returns the declaration for ask_user.
func AskUserDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolAskUser,
		Description: "Ask the user a question and wait for their response. " +
			"Use this when you need the user's input to decide what to do next, " +
			"for example whether to modify an existing project or create a new one. " +
			"The tool returns the user's answer as a string.",
		Parameters: object(map[string]*genai.Schema{
			"question": stringProp("The question to ask the user"),
		}, "question"),
	}
}

// CheckExistingProjectsDeclaration returns the declaration for check_existing_projects.
func CheckExistingProjectsDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolCheckExistingProjects,
		Description: "Check the output/ directory for existing quiz projects. " +
			"Returns a list of project names with their tech stack and file structure. " +
			"ALWAYS call this FIRST before building anything.",
		Parameters: object(nil),
	}
}

// ValidateScreenshotsDeclaration returns the declaration for validate_screenshots.
func ValidateScreenshotsDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolValidateScreenshots,
		Description: "Take screenshots of the running app in a headless browser and compare them " +
			"against the Figma design screenshots. The dev server MUST be running " +
			"(call 'npm run dev' first). This tool captures every page/route of the " +
			"built app, then sends both the app screenshots and Figma screenshots " +
			"for visual comparison. Use this AFTER building and starting the dev server " +
			"to verify design fidelity.",
		Parameters: object(map[string]*genai.Schema{
			"project_name": stringProp("Name of the project in output/ directory (e.g., 'ai_chai_quiz')"),
			"routes": stringArray("Optional: list of routes to screenshot (e.g., ['/', '/quiz', '/results']). " +
				"If not provided, routes are auto-detected from App.jsx."),
		}, "project_name"),
	}
}

// FetchFigmaDesignDeclaration returns the declaration for fetch_figma_design.
func FetchFigmaDesignDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolFetchFigmaDesign,
		Description: "Fetch the design specifications from the connected Figma file. " +
			"Returns colors, fonts, layout structure, component hierarchy, and frame screenshots. " +
			"The Figma URL may point to a specific page (via node-id); " +
			"in that case only that page's frames are returned. " +
			"Use this FIRST when the user mentions Figma or wants to match a design.",
		Parameters: object(map[string]*genai.Schema{
			"page_name": stringProp("Optional: filter by page name (e.g., 'Home Page'). Usually not needed since the URL already targets a specific page."),
		}),
	}
}

// AnalyzeFlowDeclaration returns the declaration for analyze_flow.
func AnalyzeFlowDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolAnalyzeFlow,
		Description: "Analyze the Figma frames to work out the app's screens and how buttons navigate " +
			"between them. Call after fetch_figma_design and before writing routes.",
		Parameters: object(nil),
	}
}

// FetchFigmaMCPDeclaration returns the declaration for fetch_figma_mcp.
func FetchFigmaMCPDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: ToolFetchFigmaMCP,
		Description: "Fetch LLM-optimized Figma design data through the Figma MCP server, " +
			"plus frame screenshots. Falls back to fetch_figma_design when the server is unavailable.",
		Parameters: object(map[string]*genai.Schema{
			"figma_url": stringProp("Optional: Figma URL to fetch. Defaults to the connected design."),
			"node_id":   stringProp("Optional: node id to focus on (e.g., '12:345')"),
			"page_name": stringProp("Optional: page filter used by the fallback fetch"),
		}),
	}
}

// Declarations returns every tool declaration in a stable order.
// fetch_figma_mcp is only offered when an MCP server is configured.
func Declarations(withMCP bool) []*genai.FunctionDeclaration {
	decls := []*genai.FunctionDeclaration{
		CheckExistingProjectsDeclaration(),
		CreateFileDeclaration(),
		CreateFilesDeclaration(),
		ReadFileDeclaration(),
		ListFilesDeclaration(),
		RunCommandDeclaration(),
		SearchMemoryDeclaration(),
		SaveMemoryDeclaration(),
		PlanTasksDeclaration(),
		PreviewAppDeclaration(),
		AskUserDeclaration(),
		FetchFigmaDesignDeclaration(),
		AnalyzeFlowDeclaration(),
		ValidateScreenshotsDeclaration(),
	}
	if withMCP {
		decls = append(decls, FetchFigmaMCPDeclaration())
	}
	return decls
}
