package servicedef

// FunctionMetadata is the content of <function>/function.json.
type FunctionMetadata struct {
	Bindings []BindingMetadata `json:"bindings"`
}

type BindingMetadata struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Direction  string   `json:"direction"`
	DataType   string   `json:"dataType,omitempty"`
	Path       string   `json:"path,omitempty"`
	Connection string   `json:"connection,omitempty"`
	Route      string   `json:"route,omitempty"`
	Methods    []string `json:"methods,omitempty"`
	AuthLevel  string   `json:"authLevel,omitempty"`
}

// HostMetadata is the content of host.json for a script directory served by a custom
// handler.
type HostMetadata struct {
	Version         string                 `json:"version"`
	Logging         *HostLogging           `json:"logging,omitempty"`
	CustomHandler   CustomHandlerMetadata  `json:"customHandler"`
	ExtensionBundle *ExtensionBundle       `json:"extensionBundle,omitempty"`
	Extensions      map[string]interface{} `json:"extensions,omitempty"`
}

type HostLogging struct {
	LogLevel map[string]string `json:"logLevel,omitempty"`
}

type CustomHandlerMetadata struct {
	Description                 CustomHandlerDescription `json:"description"`
	EnableForwardingHTTPRequest bool                     `json:"enableForwardingHttpRequest"`
}

type CustomHandlerDescription struct {
	DefaultExecutablePath string   `json:"defaultExecutablePath"`
	WorkingDirectory      string   `json:"workingDirectory,omitempty"`
	Arguments             []string `json:"arguments,omitempty"`
}

type ExtensionBundle struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}
