package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
)

type fakeService struct {
	archived []string
	updates  map[string]domain.Patch
	err      error
}

var _ ports.RecordService = (*fakeService)(nil)

func (f *fakeService) QueryPage(context.Context, string, int) (ports.Page, error) {
	return ports.Page{}, nil
}

func (f *fakeService) Update(_ context.Context, id string, patch domain.Patch) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = map[string]domain.Patch{}
	}
	f.updates[id] = patch
	return nil
}

func (f *fakeService) Archive(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.archived = append(f.archived, id)
	return nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(Archive{})
	reg.Register(Rewrite{From: "Old", To: "New"})

	m, err := reg.Resolve("archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", m.Name())

	_, err = reg.Resolve("explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestArchiveApply(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	err := Archive{}.Apply(context.Background(), svc, domain.Record{ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, svc.archived)
}

func TestRewriteApply(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	rec := domain.Record{
		ID: "p1",
		Properties: map[string]domain.Property{
			"Old": {Type: domain.PropertyRichText, Text: "value"},
		},
	}

	err := Rewrite{From: "Old", To: "New", ClearSource: true}.Apply(context.Background(), svc, rec)
	require.NoError(t, err)

	patch, ok := svc.updates["p1"]
	require.True(t, ok)
	assert.Nil(t, patch.Archived)
	assert.Equal(t, "value", patch.Properties["New"].Text)
	assert.Equal(t, []string{"Old"}, patch.Clear)
}

func TestRewriteSkipsRecordsWithoutSource(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: errors.New("should not be called")}
	rec := domain.Record{ID: "p1", Properties: map[string]domain.Property{}}

	err := Rewrite{From: "Old", To: "New"}.Apply(context.Background(), svc, rec)
	require.NoError(t, err)
	assert.Empty(t, svc.updates)
}
