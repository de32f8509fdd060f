// ABOUTME: Embedded conversation starters for driving the robot through MCP
// ABOUTME: Each template carries YAML front matter with a description and user turn

package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.md
var templateFS embed.FS

// ErrPromptNotFound is returned by Get for unknown prompt names.
var ErrPromptNotFound = errors.New("prompt not found")

// Role of a prompt message.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a prompt.
type Message struct {
	Role string
	Text string
}

// Prompt is a named list of messages.
type Prompt struct {
	Name        string
	Description string
	Messages    []Message
}

// order fixes the listing order; it is also the set of embedded templates.
var order = []string{
	"robot_control_prompt",
	"shelf_operation_prompt",
	"navigation_prompt",
	"error_handling_prompt",
}

type frontMatter struct {
	Description string `yaml:"description"`
	User        string `yaml:"user"`
}

var (
	loadOnce sync.Once
	loaded   []Prompt
	loadErr  error
)

func load() ([]Prompt, error) {
	loadOnce.Do(func() {
		for _, name := range order {
			data, err := templateFS.ReadFile("templates/" + name + ".md")
			if err != nil {
				loadErr = fmt.Errorf("reading prompt %s: %w", name, err)
				return
			}
			p, err := parse(name, data)
			if err != nil {
				loadErr = fmt.Errorf("parsing prompt %s: %w", name, err)
				return
			}
			loaded = append(loaded, p)
		}
	})
	return loaded, loadErr
}

// parse splits "---\n<yaml>\n---\n<system text>".
func parse(name string, data []byte) (Prompt, error) {
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return Prompt{}, errors.New("missing front matter")
	}
	rest := data[len(delim):]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return Prompt{}, errors.New("unterminated front matter")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return Prompt{}, err
	}

	system := strings.TrimSpace(string(rest[end+1+len(delim):]))
	if system == "" {
		return Prompt{}, errors.New("empty prompt body")
	}

	msgs := []Message{{Role: RoleSystem, Text: system}}
	if fm.User != "" {
		msgs = append(msgs, Message{Role: RoleUser, Text: fm.User})
	}
	return Prompt{Name: name, Description: fm.Description, Messages: msgs}, nil
}

// List returns every prompt in catalogue order.
func List() ([]Prompt, error) {
	ps, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Prompt, len(ps))
	copy(out, ps)
	return out, nil
}

// Get returns the named prompt.
func Get(name string) (Prompt, error) {
	ps, err := load()
	if err != nil {
		return Prompt{}, err
	}
	for _, p := range ps {
		if p.Name == name {
			return p, nil
		}
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}
