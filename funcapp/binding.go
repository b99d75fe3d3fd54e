package funcapp

import (
	"strings"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

// Direction is the direction of a binding relative to the function.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// DataType is the shape in which a binding delivers or accepts its value.
type DataType string

const (
	DataTypeUnspecified DataType = ""
	DataTypeBinary      DataType = "binary"
	DataTypeString      DataType = "string"
	DataTypeStream      DataType = "stream"
)

const (
	TypeHTTPTrigger = "httpTrigger"
	TypeHTTP        = "http"
	TypeBlobTrigger = "blobTrigger"
	TypeBlob        = "blob"
)

// DefaultConnection is the app setting that holds the storage connection string.
const DefaultConnection = "AzureWebJobsStorage"

// Binding describes a data connection between one handler slot and an external resource.
// Bindings are values; they are not modified after registration.
type Binding struct {
	Name       string
	Type       string
	Direction  Direction
	DataType   DataType
	Path       string
	Connection string
	Route      string
	Methods    []string
	AuthLevel  string
}

// HTTPTrigger returns an anonymous HTTP trigger binding. With no methods, every method is
// accepted.
func HTTPTrigger(name, route string, methods ...string) Binding {
	return Binding{
		Name:      name,
		Type:      TypeHTTPTrigger,
		Direction: In,
		Route:     route,
		Methods:   methods,
		AuthLevel: "anonymous",
	}
}

// HTTPOutput returns an HTTP response binding.
func HTTPOutput(name string) Binding {
	return Binding{Name: name, Type: TypeHTTP, Direction: Out}
}

func BlobTrigger(name, path, connection string) Binding {
	return Binding{Name: name, Type: TypeBlobTrigger, Direction: In, Path: path, Connection: connection}
}

func BlobInput(name, path, connection string, dataType DataType) Binding {
	return Binding{Name: name, Type: TypeBlob, Direction: In, DataType: dataType, Path: path, Connection: connection}
}

func BlobOutput(name, path, connection string, dataType DataType) Binding {
	return Binding{Name: name, Type: TypeBlob, Direction: Out, DataType: dataType, Path: path, Connection: connection}
}

// IsTrigger returns true for trigger bindings.
func (b Binding) IsTrigger() bool {
	return strings.HasSuffix(b.Type, "Trigger")
}

// IsReturn returns true if the binding receives the handler's return value.
func (b Binding) IsReturn() bool {
	return b.Name == servicedef.ReturnBindingName
}

// Metadata returns the function.json representation of the binding.
func (b Binding) Metadata() servicedef.BindingMetadata {
	return servicedef.BindingMetadata{
		Name:       b.Name,
		Type:       b.Type,
		Direction:  string(b.Direction),
		DataType:   string(b.DataType),
		Path:       b.Path,
		Connection: b.Connection,
		Route:      b.Route,
		Methods:    b.Methods,
		AuthLevel:  b.AuthLevel,
	}
}
