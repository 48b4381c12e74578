package template

import (
	"context"
	"testing"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "single variable", content: "Hi {{name}}", want: []string{"name"}},
		{name: "multiple distinct", content: "Hi {{name}}, your order {{order_id}} shipped", want: []string{"name", "order_id"}},
		{name: "repeated counted once", content: "{{name}} {{name}}", want: []string{"name"}},
		{name: "inner whitespace tolerated", content: "Hi {{ name }}", want: []string{"name"}},
		{name: "no variables", content: "plain text", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.content)
			var names []string
			for _, v := range got {
				names = append(names, v.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRenameVariable(t *testing.T) {
	ctx := context.Background()

	seed := func(content string, variables domain.TemplateVariables) (*Service, *repositorytest.FakeManager) {
		repos := repositorytest.NewFakeManager()
		repos.SeedTemplate(&domain.Template{
			ID:        "tpl-1",
			Name:      "order-update",
			Content:   content,
			Status:    domain.TemplateStatusApproved,
			Language:  "en",
			Variables: variables,
		})
		return NewService(repos), repos
	}

	t.Run("rewrites only placeholder tokens", func(t *testing.T) {
		service, _ := seed(
			"Hello name, we have your {{name}} on file. Contact {{agent}} anytime.",
			domain.TemplateVariables{{Name: "name", Type: "text"}, {Name: "agent", Type: "text"}},
		)

		updated, err := service.RenameVariable(ctx, "tpl-1", &domain.RenameVariableRequest{
			OldName: "name",
			NewName: "customer",
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello name, we have your {{customer}} on file. Contact {{agent}} anytime.", updated.Content)
		assert.Equal(t, "customer", updated.Variables[0].Name)
		assert.Equal(t, "agent", updated.Variables[1].Name)
	})

	t.Run("renames whitespace-padded tokens", func(t *testing.T) {
		service, _ := seed("Hi {{ name }}", domain.TemplateVariables{{Name: "name", Type: "text"}})

		updated, err := service.RenameVariable(ctx, "tpl-1", &domain.RenameVariableRequest{
			OldName: "name",
			NewName: "customer",
		})
		require.NoError(t, err)
		assert.Equal(t, "Hi {{customer}}", updated.Content)
	})

	t.Run("unknown variable fails without changes", func(t *testing.T) {
		service, repos := seed("Hi {{name}}", domain.TemplateVariables{{Name: "name", Type: "text"}})

		_, err := service.RenameVariable(ctx, "tpl-1", &domain.RenameVariableRequest{
			OldName: "missing",
			NewName: "customer",
		})
		require.Error(t, err)

		stored, err := repos.Templates().GetByID(ctx, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, "Hi {{name}}", stored.Content)
	})

	t.Run("rejects invalid new name", func(t *testing.T) {
		service, _ := seed("Hi {{name}}", domain.TemplateVariables{{Name: "name", Type: "text"}})

		_, err := service.RenameVariable(ctx, "tpl-1", &domain.RenameVariableRequest{
			OldName: "name",
			NewName: "bad name!",
		})
		require.Error(t, err)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("derives variables from body", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos)

		created, err := service.Create(ctx, &domain.Template{
			Name:    "welcome",
			Content: "Hi {{name}}, welcome to {{company}}",
		})
		require.NoError(t, err)
		require.Len(t, created.Variables, 2)
		assert.Equal(t, "name", created.Variables[0].Name)
		assert.Equal(t, "company", created.Variables[1].Name)
	})

	t.Run("requires name and content", func(t *testing.T) {
		service := NewService(repositorytest.NewFakeManager())
		_, err := service.Create(ctx, &domain.Template{Name: "welcome"})
		require.Error(t, err)
	})
}

func TestUpdateKeepsVariableMetadata(t *testing.T) {
	ctx := context.Background()
	repos := repositorytest.NewFakeManager()
	repos.SeedTemplate(&domain.Template{
		ID:      "tpl-1",
		Name:    "welcome",
		Content: "Hi {{name}}",
		Variables: domain.TemplateVariables{
			{Name: "name", Type: "text", Example: "Sam"},
		},
	})
	service := NewService(repos)

	updated, err := service.Update(ctx, &domain.Template{
		ID:      "tpl-1",
		Name:    "welcome",
		Content: "Hi {{name}}, order {{order_id}} shipped",
	})
	require.NoError(t, err)
	require.Len(t, updated.Variables, 2)
	assert.Equal(t, "Sam", updated.Variables[0].Example)
	assert.Equal(t, "order_id", updated.Variables[1].Name)
}
