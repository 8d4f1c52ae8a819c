package interceptors

import (
	"encoding/json"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// Configuration answers workspace/configuration requests locally instead
// of forwarding them to the client, which never ran the editor-side
// settings UI these keys would otherwise read from (spec.md §6).
type Configuration struct {
	pipeline.BaseInterceptor
}

// NewConfiguration constructs the interceptor.
func NewConfiguration() *Configuration { return &Configuration{} }

func (c *Configuration) Name() string { return "configuration" }

type configurationItem struct {
	Section string `json:"section"`
}

type configurationParams struct {
	Items []configurationItem `json:"items"`
}

// configurationValues is the fixed settings table Roslyn queries for on
// startup and on demand. Keys absent here resolve to JSON null, matching
// Roslyn's own behavior for settings it has no opinion on.
var configurationValues = map[string]any{
	"csharp|symbol_search.dotnet_search_reference_assemblies":                                     true,
	"visual_basic|symbol_search.dotnet_search_reference_assemblies":                                true,
	"navigation.dotnet_navigate_to_decompiled_sources":                                             true,
	"navigation.dotnet_navigate_to_source_link_and_embedded_sources":                               true,
	"csharp|completion.dotnet_show_completion_items_from_unimported_namespaces":                     true,
	"visual_basic|completion.dotnet_show_completion_items_from_unimported_namespaces":                true,
	"csharp|completion.dotnet_trigger_completion_in_argument_lists":                                 true,
	"visual_basic|completion.dotnet_trigger_completion_in_argument_lists":                            true,
	"csharp|quick_info.dotnet_show_remarks_in_quick_info":                                           true,
	"visual_basic|quick_info.dotnet_show_remarks_in_quick_info":                                      true,
	"projects.dotnet_enable_automatic_restore":                                                      true,
	"projects.dotnet_enable_file_based_programs":                                                    true,
	"csharp|code_style.formatting.indentation_and_spacing.tab_width":                                4,
	"visual_basic|code_style.formatting.indentation_and_spacing.tab_width":                           4,
	"csharp|code_style.formatting.indentation_and_spacing.indent_size":                               4,
	"visual_basic|code_style.formatting.indentation_and_spacing.indent_size":                          4,
	"csharp|code_style.formatting.indentation_and_spacing.indent_style":                              "space",
	"visual_basic|code_style.formatting.indentation_and_spacing.indent_style":                         "space",
	"csharp|background_analysis.dotnet_analyzer_diagnostics_scope":                                   "openFiles",
	"visual_basic|background_analysis.dotnet_analyzer_diagnostics_scope":                              "openFiles",
	"csharp|background_analysis.dotnet_compiler_diagnostics_scope":                                   "openFiles",
	"visual_basic|background_analysis.dotnet_compiler_diagnostics_scope":                              "openFiles",
	"csharp|inlay_hints.dotnet_enable_inlay_hints_for_parameters":                                    true,
	"visual_basic|inlay_hints.dotnet_enable_inlay_hints_for_parameters":                               true,
	"csharp|inlay_hints.dotnet_enable_inlay_hints_for_literal_parameters":                             true,
	"visual_basic|inlay_hints.dotnet_enable_inlay_hints_for_literal_parameters":                        true,
	"csharp|inlay_hints.dotnet_enable_inlay_hints_for_indexer_parameters":                             true,
	"visual_basic|inlay_hints.dotnet_enable_inlay_hints_for_indexer_parameters":                        true,
	"csharp|inlay_hints.dotnet_enable_inlay_hints_for_object_creation_parameters":                      true,
	"visual_basic|inlay_hints.dotnet_enable_inlay_hints_for_object_creation_parameters":                 true,
	"csharp|inlay_hints.dotnet_enable_inlay_hints_for_other_parameters":                               true,
	"visual_basic|inlay_hints.dotnet_enable_inlay_hints_for_other_parameters":                          true,
	"csharp|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_differ_only_by_suffix":         false,
	"visual_basic|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_differ_only_by_suffix":    false,
	"csharp|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_match_method_intent":           false,
	"visual_basic|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_match_method_intent":      false,
	"csharp|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_match_argument_name":           false,
	"visual_basic|inlay_hints.dotnet_suppress_inlay_hints_for_parameters_that_match_argument_name":      false,
	"csharp|inlay_hints.csharp_enable_inlay_hints_for_types":                                         true,
	"visual_basic|inlay_hints.csharp_enable_inlay_hints_for_types":                                    true,
	"csharp|inlay_hints.csharp_enable_inlay_hints_for_implicit_variable_types":                        true,
	"visual_basic|inlay_hints.csharp_enable_inlay_hints_for_implicit_variable_types":                   true,
	"csharp|inlay_hints.csharp_enable_inlay_hints_for_lambda_parameter_types":                          true,
	"visual_basic|inlay_hints.csharp_enable_inlay_hints_for_lambda_parameter_types":                     true,
	"csharp|inlay_hints.csharp_enable_inlay_hints_for_implicit_object_creation":                        true,
	"visual_basic|inlay_hints.csharp_enable_inlay_hints_for_implicit_object_creation":                   true,
	"csharp|inlay_hints.csharp_enable_inlay_hints_for_collection_expressions":                          true,
	"visual_basic|inlay_hints.csharp_enable_inlay_hints_for_collection_expressions":                     true,
}

func (c *Configuration) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	req := msg.Request
	if req == nil || req.Method != "workspace/configuration" {
		return pipeline.ActionContinue, nil
	}

	var params configurationParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return pipeline.ActionContinue, nil
	}

	answers := make([]any, len(params.Items))
	for i, item := range params.Items {
		answers[i] = configurationValues[item.Section] // nil (-> JSON null) for unknown keys
	}

	result, err := json.Marshal(answers)
	if err != nil {
		return pipeline.ActionContinue, nil
	}

	return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
		ID: req.ID, Result: result,
	})), nil
}
