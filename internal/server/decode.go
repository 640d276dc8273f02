package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// maxBodyBytes bounds mutation request bodies.
const maxBodyBytes = 1 << 20

// validator is implemented by request types that check their own fields.
type validator interface {
	Validate() error
}

// decodeBody reads a JSON object and decodes it into Req with mapstructure,
// then runs Req's Validate method when it has one.
func decodeBody[Req any](w http.ResponseWriter, r *http.Request) (Req, error) {
	var req Req

	var args map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&args); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	if args == nil {
		return req, errors.New("request body must be a JSON object")
	}

	md := mapstructure.Metadata{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &req,
		TagName:  "json",
		Metadata: &md,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(args); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	if len(md.Unused) > 0 {
		return req, fmt.Errorf("unknown fields: %s", strings.Join(md.Unused, ", "))
	}

	if v, ok := any(req).(validator); ok {
		if err := v.Validate(); err != nil {
			return req, err
		}
	}
	return req, nil
}

var (
	errNameRequired = errors.New("name is required")
	errBadName      = errors.New("name must not contain path separators or be . or ..")
)

func validName(name string) error {
	switch {
	case name == "":
		return errNameRequired
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return errBadName
	}
	return nil
}

type transferRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Overwrite   bool   `json:"overwrite"`
	Merge       bool   `json:"merge"`
}

func (r transferRequest) Validate() error {
	if r.Source == "" || r.Destination == "" {
		return errors.New("source and destination required")
	}
	return nil
}

type renameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`
}

func (r renameRequest) Validate() error {
	if r.Path == "" {
		return errors.New("path and new_name required")
	}
	return validName(r.NewName)
}

type deleteRequest struct {
	Path string `json:"path"`
}

func (r deleteRequest) Validate() error {
	if r.Path == "" {
		return errors.New("path required")
	}
	return nil
}

type createRequest struct {
	Directory string `json:"directory"`
	Name      string `json:"name"`
}

func (r createRequest) Validate() error {
	if r.Directory == "" {
		return errors.New("directory and name required")
	}
	return validName(r.Name)
}

// sibling replaces the last component of a raw client path with name,
// keeping the raw prefix so path conversion still applies.
func sibling(raw, name string) (string, bool) {
	trimmed := strings.TrimRight(raw, `/\`)
	i := strings.LastIndexAny(trimmed, `/\`)
	if i < 0 {
		return "", false
	}
	return trimmed[:i+1] + name, true
}

// child appends name to a raw client directory path.
func child(dir, name string) string {
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + "/" + name
}
