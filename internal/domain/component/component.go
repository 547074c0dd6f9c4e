package component

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

// Type is the kind of an SDK component.
type Type string

// Supported component types.
const (
	TypePlatform Type = "platform"
	TypeAddon    Type = "addon"
)

// markerDirs maps every supported type to the SDK subdirectory that the SDK
// manager creates for a component of that type. Adding a type is a one-line edit.
//
//nolint:gochecknoglobals // Read-only lookup table.
var markerDirs = map[Type]string{
	TypePlatform: "platforms",
	TypeAddon:    "add-ons",
}

var (
	// ErrUnsupportedType is matched by every ConfigError.
	ErrUnsupportedType = errors.New("unsupported package type")
	// errNameRequired is returned for requests without a component name.
	errNameRequired = errors.New("component name must be provided")
	// errInvalidName is returned for names that would escape the SDK tree.
	errInvalidName = errors.New("component name must be a single path element")
)

// ConfigError reports a component type outside the supported set.
type ConfigError struct {
	// Type is the offending value exactly as requested.
	Type string
}

// Error returns "Unsupported package type: {type}".
func (e *ConfigError) Error() string {
	return "Unsupported package type: " + e.Type
}

// Is lets errors.Is match ErrUnsupportedType.
func (e *ConfigError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Request asks for one named SDK component to be installed.
type Request struct {
	// Name is the SDK manager filter token, e.g. "android-15".
	Name string
	// Type selects the marker location.
	Type Type
}

// NewRequest validates name and type and returns a ready Request.
func NewRequest(name, typ string) (Request, error) {
	req := Request{
		Name: strings.TrimSpace(name),
		Type: Type(strings.TrimSpace(typ)),
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}

	return req, nil
}

// Validate checks the request against the supported type table.
func (r Request) Validate() error {
	if _, ok := markerDirs[r.Type]; !ok {
		return &ConfigError{Type: string(r.Type)}
	}

	if r.Name == "" {
		return errNameRequired
	}

	if r.Name != path.Base(r.Name) || r.Name == "." || r.Name == ".." {
		return fmt.Errorf("%q: %w", r.Name, errInvalidName)
	}

	return nil
}

// MarkerPath returns the path whose existence proves the component is installed.
func (r Request) MarkerPath(sdkRoot string) string {
	return path.Join(sdkRoot, markerDirs[r.Type], r.Name)
}

// String renders the request as "type/name".
func (r Request) String() string {
	return string(r.Type) + "/" + r.Name
}

// SupportedTypes lists the supported types in sorted order.
func SupportedTypes() []Type {
	types := make([]Type, 0, len(markerDirs))
	for t := range markerDirs {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}
