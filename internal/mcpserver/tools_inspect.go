package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

type inspectInput struct {
	AppPath string `json:"app_path"       jsonschema:"Application root directory that override files are resolved against"`
	File    string `json:"file,omitempty" jsonschema:"Override file to load. Defaults to the first configured override file."`
}

type inspectProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	XPath string `json:"xpath,omitempty"`
}

type inspectBlock struct {
	Section    string `json:"section"`
	Name       string `json:"name,omitempty"`
	Directives int    `json:"directives"`
}

type inspectOutput struct {
	Valid      bool              `json:"valid"`
	ErrorCount int               `json:"error_count"`
	Errors     []string          `json:"errors,omitempty"`
	Properties []inspectProperty `json:"properties,omitempty"`
	Blocks     []inspectBlock    `json:"blocks,omitempty"`
	Document   string            `json:"document"`
}

func handleInspect(_ context.Context, _ *mcp.CallToolRequest, input inspectInput) (*mcp.CallToolResult, inspectOutput, error) {
	name := input.File
	if name == "" {
		files := session.Files()
		if len(files) == 0 {
			name = overrides.DefaultOverrideFile
		} else {
			name = files[0]
		}
	}

	root, err := session.LoadXMLResource(name, input.AppPath)
	if err != nil {
		return errResult(err), inspectOutput{}, nil
	}

	errs := overrides.Validate(root)
	output := inspectOutput{
		Valid:      len(errs) == 0,
		ErrorCount: len(errs),
	}
	output.Errors = makeSlice[string](len(errs))
	for _, e := range errs {
		output.Errors = append(output.Errors, sanitizeError(e))
	}

	for _, section := range root.SelectElements(overrides.SectionProperties) {
		for _, p := range section.ChildElements() {
			output.Properties = append(output.Properties, inspectProperty{
				Name:  p.Tag,
				Value: strings.TrimSpace(p.Text()),
				XPath: p.SelectAttrValue("xpath", ""),
			})
		}
	}

	for _, el := range root.ChildElements() {
		switch el.Tag {
		case overrides.SectionFile, overrides.SectionTextFile, overrides.SectionSpring, overrides.SectionLogging:
			output.Blocks = append(output.Blocks, inspectBlock{
				Section:    el.Tag,
				Name:       el.SelectAttrValue("name", ""),
				Directives: len(el.ChildElements()),
			})
		}
	}

	data, err := xmldoc.MarshalElement(root, xmldoc.DefaultIndent)
	if err != nil {
		return errResult(err), inspectOutput{}, nil
	}
	output.Document = string(data)

	return nil, output, nil
}
