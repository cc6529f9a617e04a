package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xmloverrides/xmloverrides/internal/fileutil"
)

type textInput struct {
	Resource      resourceInput `json:"resource"                 jsonschema:"The text resource to apply the textFile blocks to"`
	AppPath       string        `json:"app_path"                 jsonschema:"Application root directory that override files are resolved against"`
	OverrideFiles []string      `json:"override_files,omitempty" jsonschema:"Override files to apply in order. Defaults to XMLOVERRIDES_OVERRIDE_FILES or /WEB-INF/overrides-config.xml."`
	StrictTargets *bool         `json:"strict_targets,omitempty" jsonschema:"Fail when a line directive matches no line"`
	Output        string        `json:"output,omitempty"         jsonschema:"File path to write result. If omitted the text is returned inline."`
}

type textOutput struct {
	Resource          string   `json:"resource"`
	DirectivesApplied int      `json:"directives_applied"`
	DirectivesSkipped int      `json:"directives_skipped"`
	LineCount         int      `json:"line_count"`
	Warnings          []string `json:"warnings,omitempty"`
	WrittenTo         string   `json:"written_to,omitempty"`
	Text              string   `json:"text,omitempty"`
	Summary           string   `json:"summary"`
}

func handleText(_ context.Context, _ *mcp.CallToolRequest, input textInput) (*mcp.CallToolResult, textOutput, error) {
	lines, name, err := input.Resource.lines()
	if err != nil {
		return errResult(err), textOutput{}, nil
	}

	target := overridesInput{
		AppPath:       input.AppPath,
		OverrideFiles: input.OverrideFiles,
		StrictTargets: input.StrictTargets,
	}
	lines, result, err := target.overrides().UpdateText(name, target.files(), input.AppPath, lines)
	if err != nil {
		return errResult(err), textOutput{}, nil
	}

	output := textOutput{
		Resource:          name,
		DirectivesApplied: result.DirectivesApplied,
		DirectivesSkipped: result.DirectivesSkipped,
		LineCount:         len(lines),
		Warnings:          result.Warnings.Strings(),
		Summary:           buildApplySummary(result.DirectivesApplied, result.DirectivesSkipped, len(result.Warnings), -1),
	}

	text := joinLines(lines)
	if input.Output != "" {
		written, err := fileutil.WriteOutput(appFs, input.Output, []byte(text))
		if err != nil {
			return errResult(err), textOutput{}, nil
		}
		output.WrittenTo = written
	} else {
		output.Text = text
	}

	return nil, output, nil
}
