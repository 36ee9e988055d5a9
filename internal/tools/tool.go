package tools

// Call is a parsed tool request from the model. The set of implementations
// is closed; Executor dispatches on the concrete type.
type Call interface {
	ToolName() string
	isCall()
}

// Tool names as declared to the model.
const (
	ToolCreateFile            = "create_file"
	ToolCreateFiles           = "create_files"
	ToolReadFile              = "read_file"
	ToolListFiles             = "list_files"
	ToolRunCommand            = "run_command"
	ToolSearchMemory          = "search_memory"
	ToolSaveMemory            = "save_memory"
	ToolPlanTasks             = "plan_tasks"
	ToolPreviewApp            = "preview_app"
	ToolAskUser               = "ask_user"
	ToolFetchFigmaDesign      = "fetch_figma_design"
	ToolValidateScreenshots   = "validate_screenshots"
	ToolAnalyzeFlow           = "analyze_flow"
	ToolFetchFigmaMCP         = "fetch_figma_mcp"
	ToolCheckExistingProjects = "check_existing_projects"
)

// CreateFile writes one file.
type CreateFile struct {
	Path    string
	Content string
}

// FileSpec is one entry of a CreateFiles batch. Entries without a path are
// reported as failures.
type FileSpec struct {
	Path    string
	Content string
}

// CreateFiles writes several files in one call.
type CreateFiles struct {
	Files []FileSpec
}

// ReadFile returns a file's contents.
type ReadFile struct {
	Path string
}

// ListFiles lists one directory.
type ListFiles struct {
	Directory string
}

// RunCommand runs a validated shell command.
type RunCommand struct {
	Command string
}

// SearchMemory queries long-term memory. Category "all" searches everything.
type SearchMemory struct {
	Query    string
	Category string
}

// SaveMemory stores data under category/key.
type SaveMemory struct {
	Category string
	Key      string
	Data     any
}

// PlanTaskSpec is one task as sent by the model.
type PlanTaskSpec struct {
	ID          string
	Description string
	Status      string
	DependsOn   []string
}

// PlanTasks replaces the task plan.
type PlanTasks struct {
	Tasks []PlanTaskSpec
}

// PreviewApp starts the dev server for the project owning Path.
type PreviewApp struct {
	Path string
}

// AskUser asks the person driving the build a question.
type AskUser struct {
	Question string
}

// FetchFigmaDesign fetches the connected design.
type FetchFigmaDesign struct {
	PageName string
}

// ValidateScreenshots captures the running app and pairs it with the design.
type ValidateScreenshots struct {
	ProjectName string
	Routes      []string
}

// AnalyzeFlow infers screen navigation from the design.
type AnalyzeFlow struct{}

// FetchFigmaMCP fetches the design through an MCP server.
type FetchFigmaMCP struct {
	FigmaURL string
	NodeID   string
	PageName string
}

// CheckExistingProjects lists the projects under output/.
type CheckExistingProjects struct{}

func (CreateFile) ToolName() string            { return ToolCreateFile }
func (CreateFiles) ToolName() string           { return ToolCreateFiles }
func (ReadFile) ToolName() string              { return ToolReadFile }
func (ListFiles) ToolName() string             { return ToolListFiles }
func (RunCommand) ToolName() string            { return ToolRunCommand }
func (SearchMemory) ToolName() string          { return ToolSearchMemory }
func (SaveMemory) ToolName() string            { return ToolSaveMemory }
func (PlanTasks) ToolName() string             { return ToolPlanTasks }
func (PreviewApp) ToolName() string            { return ToolPreviewApp }
func (AskUser) ToolName() string               { return ToolAskUser }
func (FetchFigmaDesign) ToolName() string      { return ToolFetchFigmaDesign }
func (ValidateScreenshots) ToolName() string   { return ToolValidateScreenshots }
func (AnalyzeFlow) ToolName() string           { return ToolAnalyzeFlow }
func (FetchFigmaMCP) ToolName() string         { return ToolFetchFigmaMCP }
func (CheckExistingProjects) ToolName() string { return ToolCheckExistingProjects }

func (CreateFile) isCall()            {}
func (CreateFiles) isCall()           {}
func (ReadFile) isCall()              {}
func (ListFiles) isCall()             {}
func (RunCommand) isCall()            {}
func (SearchMemory) isCall()          {}
func (SaveMemory) isCall()            {}
func (PlanTasks) isCall()             {}
func (PreviewApp) isCall()            {}
func (AskUser) isCall()               {}
func (FetchFigmaDesign) isCall()      {}
func (ValidateScreenshots) isCall()   {}
func (AnalyzeFlow) isCall()           {}
func (FetchFigmaMCP) isCall()         {}
func (CheckExistingProjects) isCall() {}

// AttachmentKind says where an image came from.
type AttachmentKind int

const (
	// DesignFrame is an exported Figma frame.
	DesignFrame AttachmentKind = iota
	// AppCapture is a screenshot of the running app.
	AppCapture
)

func (k AttachmentKind) String() string {
	if k == AppCapture {
		return "app"
	}
	return "design"
}

// Attachment is an image produced by a tool. It travels beside the result
// text and is never embedded in it.
type Attachment struct {
	Kind  AttachmentKind
	Path  string
	Label string
}

// Result is the outcome of one tool call.
type Result struct {
	Text        string
	Attachments []Attachment
	IsError     bool
}

// NewResult creates a successful text result.
func NewResult(text string) Result {
	return Result{Text: text}
}

// NewErrorText creates a failed result whose text is shown to the model as is.
func NewErrorText(text string) Result {
	return Result{Text: text, IsError: true}
}
