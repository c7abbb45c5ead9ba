package domain

import "encoding/json"

// The authoring surface and the execution backend disagree on field
// spelling: editors emit camelCase (inputMappings, sourceHandle) while the
// persisted spec uses snake_case. The core keeps one canonical
// representation and branches only here, at the JSON boundary: both
// spellings are accepted on the way in and both are emitted on the way out.

// MarshalJSON serializes the node with both spellings of the
// input-mapping field.
func (n Node) MarshalJSON() ([]byte, error) {
	type alias Node
	return json.Marshal(struct {
		alias
		MappingsSnake map[string]any `json:"input_mappings,omitempty"`
		MappingsCamel map[string]any `json:"inputMappings,omitempty"`
	}{
		alias:         alias(n),
		MappingsSnake: n.InputMappings,
		MappingsCamel: n.InputMappings,
	})
}

// UnmarshalJSON accepts either spelling of the input-mapping field,
// preferring snake_case when both are present.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	aux := struct {
		*alias
		MappingsSnake map[string]any `json:"input_mappings"`
		MappingsCamel map[string]any `json:"inputMappings"`
	}{alias: (*alias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MappingsSnake != nil {
		n.InputMappings = aux.MappingsSnake
	} else {
		n.InputMappings = aux.MappingsCamel
	}
	return nil
}

// MarshalJSON serializes the edge with both handle-naming conventions.
func (e Edge) MarshalJSON() ([]byte, error) {
	type alias Edge
	return json.Marshal(struct {
		alias
		SourceSnake string `json:"source_handle,omitempty"`
		SourceCamel string `json:"sourceHandle,omitempty"`
		TargetSnake string `json:"target_handle,omitempty"`
		TargetCamel string `json:"targetHandle,omitempty"`
	}{
		alias:       alias(e),
		SourceSnake: e.SourceHandle,
		SourceCamel: e.SourceHandle,
		TargetSnake: e.TargetHandle,
		TargetCamel: e.TargetHandle,
	})
}

// UnmarshalJSON accepts either handle-naming convention, preferring
// snake_case when both are present.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type alias Edge
	aux := struct {
		*alias
		SourceSnake string `json:"source_handle"`
		SourceCamel string `json:"sourceHandle"`
		TargetSnake string `json:"target_handle"`
		TargetCamel string `json:"targetHandle"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.SourceHandle = aux.SourceSnake
	if e.SourceHandle == "" {
		e.SourceHandle = aux.SourceCamel
	}
	e.TargetHandle = aux.TargetSnake
	if e.TargetHandle == "" {
		e.TargetHandle = aux.TargetCamel
	}
	return nil
}
