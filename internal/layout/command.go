package layout

import (
	"fmt"
	"strings"

	"sitebuilder/internal/domain"
)

// CommandKind names a document mutation.
type CommandKind string

const (
	CommandCreate       CommandKind = "create_section"
	CommandDelete       CommandKind = "delete_section"
	CommandPatch        CommandKind = "patch_section"
	CommandMergeSetting CommandKind = "merge_setting"
	CommandMove         CommandKind = "move_section"
	CommandReplace      CommandKind = "replace_layout"
)

// Command is one entry of a document's command log.
type Command struct {
	Kind        CommandKind    `json:"kind"`
	SectionName string         `json:"sectionName,omitempty"`
	SectionID   string         `json:"sectionId,omitempty"`
	Path        string         `json:"path,omitempty"`
	Value       any            `json:"value,omitempty"`
	Setting     map[string]any `json:"setting,omitempty"`
	Index       int            `json:"index,omitempty"`
	Layout      *domain.Layout `json:"layout,omitempty"`
}

// Label is a short human description used in history listings.
func (c Command) Label() string {
	switch c.Kind {
	case CommandCreate:
		return "create " + c.SectionID
	case CommandDelete:
		return "delete " + c.SectionID
	case CommandPatch:
		return "patch " + c.SectionID + " " + c.Path
	case CommandMergeSetting:
		return "style " + c.SectionID
	case CommandMove:
		return fmt.Sprintf("move %s to %d", c.SectionID, c.Index)
	case CommandReplace:
		return "save layout"
	default:
		return string(c.Kind)
	}
}

// Editor applies commands against a template source.
type Editor struct {
	templates TemplateSource
	newID     IDGenerator
}

func NewEditor(templates TemplateSource, newID IDGenerator) *Editor {
	if newID == nil {
		newID = ShortID
	}
	return &Editor{templates: templates, newID: newID}
}

// Apply runs cmd against l. For CommandCreate the returned command carries
// the generated SectionID so the log can replay the exact identifier.
func (e *Editor) Apply(l *domain.Layout, cmd Command) (*domain.Layout, Command, error) {
	switch cmd.Kind {
	case CommandCreate:
		newID := e.newID
		// Replaying a logged create keeps its identifier.
		if suffix, ok := strings.CutPrefix(cmd.SectionID, cmd.SectionName+"-"); ok && suffix != "" {
			newID = func() string { return suffix }
		}
		out, id, err := Create(l, cmd.SectionName, e.templates, newID)
		if err != nil {
			return nil, cmd, err
		}
		cmd.SectionID = id
		return out, cmd, nil
	case CommandDelete:
		return Delete(l, cmd.SectionID), cmd, nil
	case CommandPatch:
		out, err := Patch(l, cmd.SectionID, cmd.Path, cmd.Value)
		return out, cmd, err
	case CommandMergeSetting:
		out, err := MergeSetting(l, cmd.SectionID, cmd.Setting)
		return out, cmd, err
	case CommandMove:
		out, err := Move(l, cmd.SectionID, cmd.Index)
		return out, cmd, err
	case CommandReplace:
		if cmd.Layout == nil {
			return nil, cmd, fmt.Errorf("replace layout: missing layout")
		}
		return Clone(cmd.Layout), cmd, nil
	default:
		return nil, cmd, fmt.Errorf("unknown command %q", cmd.Kind)
	}
}

// Replay applies cmds in order starting from l.
func (e *Editor) Replay(l *domain.Layout, cmds []Command) (*domain.Layout, error) {
	cur := l
	for i, c := range cmds {
		next, _, err := e.Apply(cur, c)
		if err != nil {
			return nil, fmt.Errorf("replay command %d (%s): %w", i, c.Kind, err)
		}
		cur = next
	}
	return cur, nil
}
