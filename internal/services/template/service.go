package template

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
)

// placeholderPattern matches `{{name}}` tokens, tolerating inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

var variableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Service manages message templates and their placeholder variables.
type Service struct {
	repos repository.RepositoryManager
}

// NewService creates a template service.
func NewService(repos repository.RepositoryManager) *Service {
	return &Service{repos: repos}
}

// Create stores a new template. The variable list is derived from the body
// when not supplied.
func (s *Service) Create(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	if template.Name == "" || template.Content == "" {
		return nil, fmt.Errorf("name and content are required")
	}
	if len(template.Variables) == 0 {
		template.Variables = ExtractVariables(template.Content)
	}
	if err := s.repos.Templates().Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Get returns a template by id, nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*domain.Template, error) {
	return s.repos.Templates().GetByID(ctx, id)
}

// GetAll returns all templates.
func (s *Service) GetAll(ctx context.Context) ([]*domain.Template, error) {
	return s.repos.Templates().GetAll(ctx)
}

// Update saves template changes and re-derives the variable list from the
// new body.
func (s *Service) Update(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	existing, err := s.repos.Templates().GetByID(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("template not found: %s", template.ID)
	}
	template.Variables = mergeVariables(existing.Variables, template.Content)
	if err := s.repos.Templates().Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repos.Templates().Delete(ctx, id)
}

// RenameVariable renames one placeholder across the template body and its
// variable list. Only `{{old}}` placeholder tokens are rewritten; matching
// text outside placeholders is left alone.
func (s *Service) RenameVariable(ctx context.Context, id string, req *domain.RenameVariableRequest) (*domain.Template, error) {
	if req.OldName == "" || req.NewName == "" {
		return nil, fmt.Errorf("old_name and new_name are required")
	}
	if !variableNamePattern.MatchString(req.NewName) {
		return nil, fmt.Errorf("invalid variable name: %s", req.NewName)
	}

	template, err := s.repos.Templates().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template not found: %s", id)
	}

	found := false
	template.Content = placeholderPattern.ReplaceAllStringFunc(template.Content, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if name != req.OldName {
			return token
		}
		found = true
		return "{{" + req.NewName + "}}"
	})
	for i := range template.Variables {
		if template.Variables[i].Name == req.OldName {
			template.Variables[i].Name = req.NewName
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("variable not found: %s", req.OldName)
	}

	if err := s.repos.Templates().Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// ExtractVariables lists the distinct placeholders of a template body in
// first-appearance order.
func ExtractVariables(content string) domain.TemplateVariables {
	seen := make(map[string]struct{})
	var variables domain.TemplateVariables
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, domain.TemplateVariable{Name: name, Type: "text"})
	}
	return variables
}

// mergeVariables re-derives the variable list from the body while keeping
// type and example metadata of variables that survive the edit.
func mergeVariables(old domain.TemplateVariables, content string) domain.TemplateVariables {
	byName := make(map[string]domain.TemplateVariable, len(old))
	for _, v := range old {
		byName[v.Name] = v
	}
	derived := ExtractVariables(content)
	for i := range derived {
		if prev, ok := byName[derived[i].Name]; ok {
			derived[i] = prev
		}
	}
	return derived
}
