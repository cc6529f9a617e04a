package mcpserver

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xmloverrides/xmloverrides/internal/fileutil"
	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

type applyInput struct {
	Resource         resourceInput `json:"resource"                    jsonschema:"The XML resource to apply the overrides to"`
	AppPath          string        `json:"app_path"                    jsonschema:"Application root directory that override files are resolved against"`
	OverrideFiles    []string      `json:"override_files,omitempty"    jsonschema:"Override files to apply in order. Defaults to XMLOVERRIDES_OVERRIDE_FILES or /WEB-INF/overrides-config.xml."`
	StrictTargets    *bool         `json:"strict_targets,omitempty"    jsonschema:"Fail when a directive selector matches nothing"`
	StrictProperties *bool         `json:"strict_properties,omitempty" jsonschema:"Fail when a scalar property selector matches nothing"`
	Spring           bool          `json:"spring,omitempty"            jsonschema:"Also run the spring bean directives (resource must be a bean-definition document)"`
	DryRun           bool          `json:"dry_run,omitempty"           jsonschema:"Preview changes without applying"`
	Output           string        `json:"output,omitempty"            jsonschema:"File path to write result. If omitted the result is returned inline."`
}

func (in applyInput) overrides() overridesInput {
	return overridesInput{
		AppPath:          in.AppPath,
		OverrideFiles:    in.OverrideFiles,
		StrictTargets:    in.StrictTargets,
		StrictProperties: in.StrictProperties,
	}
}

type applyChange struct {
	Block        string   `json:"block"`
	Index        int      `json:"index"`
	Directive    string   `json:"directive"`
	Selector     string   `json:"selector"`
	MatchCount   int      `json:"match_count"`
	Description  string   `json:"description,omitempty"`
	MatchedPaths []string `json:"matched_paths,omitempty"`
}

type applyOutput struct {
	Resource          string        `json:"resource"`
	DirectivesApplied int           `json:"directives_applied"`
	DirectivesSkipped int           `json:"directives_skipped"`
	OverrideFiles     []string      `json:"override_files,omitempty"`
	Changes           []applyChange `json:"changes,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	WrittenTo         string        `json:"written_to,omitempty"`
	Document          string        `json:"document,omitempty"`
	Summary           string        `json:"summary"`
}

func handleApply(_ context.Context, _ *mcp.CallToolRequest, input applyInput) (*mcp.CallToolResult, applyOutput, error) {
	doc, name, err := input.Resource.document()
	if err != nil {
		return errResult(err), applyOutput{}, nil
	}

	target := input.overrides()
	o := target.overrides()

	if input.DryRun {
		if input.Spring {
			return errResult(fmt.Errorf("dry_run cannot be combined with spring")), applyOutput{}, nil
		}
		return handleApplyDryRun(o, target, name, doc.Root())
	}

	var result *overrides.ApplyResult
	if input.Spring {
		result, err = o.UpdateBeanDefinitions(name, target.files(), input.AppPath, doc.Root())
	} else {
		result, err = o.Update(name, target.files(), input.AppPath, doc.Root())
	}
	if err != nil {
		return errResult(err), applyOutput{}, nil
	}

	output := applyOutput{
		Resource:          name,
		DirectivesApplied: result.DirectivesApplied,
		DirectivesSkipped: result.DirectivesSkipped,
		OverrideFiles:     result.OverrideFiles,
		Warnings:          result.Warnings.Strings(),
	}

	output.Changes = makeSlice[applyChange](len(result.Changes))
	for _, c := range result.Changes {
		output.Changes = append(output.Changes, applyChange{
			Block:      c.Block,
			Index:      c.Index,
			Directive:  c.Directive,
			Selector:   c.Selector,
			MatchCount: c.MatchCount,
		})
	}

	output.Summary = buildApplySummary(result.DirectivesApplied, result.DirectivesSkipped, len(result.Warnings), len(result.OverrideFiles))

	data, err := xmldoc.Marshal(doc, xmldoc.DefaultIndent)
	if err != nil {
		return errResult(err), applyOutput{}, nil
	}

	if input.Output != "" {
		written, err := fileutil.WriteOutput(appFs, input.Output, data)
		if err != nil {
			return errResult(err), applyOutput{}, nil
		}
		output.WrittenTo = written
	} else {
		output.Document = string(data)
	}

	return nil, output, nil
}

func handleApplyDryRun(o *overrides.Overrides, target overridesInput, name string, root *etree.Element) (*mcp.CallToolResult, applyOutput, error) {
	dryResult, err := o.DryRun(name, target.files(), target.AppPath, root)
	if err != nil {
		return errResult(err), applyOutput{}, nil
	}

	output := applyOutput{
		Resource:          name,
		DirectivesApplied: dryResult.WouldApply,
		DirectivesSkipped: dryResult.WouldSkip,
		Warnings:          dryResult.Warnings.Strings(),
	}

	output.Changes = makeSlice[applyChange](len(dryResult.Changes))
	for _, c := range dryResult.Changes {
		output.Changes = append(output.Changes, applyChange{
			Block:        c.Block,
			Index:        c.Index,
			Directive:    c.Directive,
			Selector:     c.Selector,
			MatchCount:   c.MatchCount,
			Description:  c.Description,
			MatchedPaths: c.MatchedPaths,
		})
	}

	output.Summary = buildApplySummary(dryResult.WouldApply, dryResult.WouldSkip, len(dryResult.Warnings), -1) +
		" (dry run - no changes applied)"

	return nil, output, nil
}

// buildApplySummary describes a run; a negative files count is left out.
func buildApplySummary(applied, skipped, warnings, files int) string {
	summary := formatCount(applied, "directive") + " applied"
	if skipped > 0 {
		summary += ", " + formatCount(skipped, "directive") + " skipped"
	}
	if files >= 0 {
		summary += " from " + formatCount(files, "override file")
	}
	if warnings > 0 {
		summary += " with " + formatCount(warnings, "warning")
	}
	summary += "."
	return summary
}
