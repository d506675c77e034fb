package kanban

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/staffboard/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
	"github.com/hugo-lorenzo-mato/staffboard/internal/testutil"
)

func TestAuditTrail_WriteCommentValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CommentInput
		code string
	}{
		{name: "empty card", in: CommentInput{Body: "hi", AuthorID: "u"}, code: core.CodeEmptyCardID},
		{name: "blank body", in: CommentInput{CardID: "c", Body: "  \n ", AuthorID: "u"}, code: core.CodeEmptyBody},
		{name: "empty author", in: CommentInput{CardID: "c", Body: "hi"}, code: core.CodeEmptyAuthor},
		{name: "too long", in: CommentInput{CardID: "c", Body: strings.Repeat("a", core.MaxCommentLength+1), AuthorID: "u"}, code: core.CodeBodyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.audit().WriteComment(context.Background(), tt.in)
			require.Error(t, err)

			var domErr *core.DomainError
			require.True(t, errors.As(err, &domErr))
			assert.Equal(t, core.ErrCatValidation, domErr.Category)
			assert.Equal(t, tt.code, domErr.Code)
			assert.Equal(t, 0, f.gw.Calls(store.OpInsert, core.TableComments))
		})
	}
}

func TestAuditTrail_WriteComment(t *testing.T) {
	f := newFixture(t)
	c, err := f.audit().WriteComment(context.Background(), CommentInput{
		CardID: "c1", Body: "  welcome aboard  ", AuthorID: "u-1", AuthorName: "Bia",
	})
	require.NoError(t, err)

	assert.Equal(t, "welcome aboard", c.Body)
	assert.Equal(t, "Bia", c.AuthorName)
	assert.False(t, c.System)
	assert.Equal(t, 1, f.events.Count(events.TypeCommentAdded))
}

func TestAuditTrail_RetriesWithoutAuthorName(t *testing.T) {
	f := newFixture(t)
	f.gw.DropColumn(core.TableComments, "author_name")

	c, err := f.audit().WriteComment(context.Background(), CommentInput{
		CardID: "c1", Body: "note", AuthorID: "u-1", AuthorName: "Bia",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.gw.Calls(store.OpInsert, core.TableComments))
	assert.Empty(t, c.AuthorName)
	assert.Equal(t, "u-1", c.AuthorID)
}

func TestAuditTrail_RetryFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.gw.DropColumn(core.TableComments, "author_name")
	f.gw.DropColumn(core.TableComments, "system")

	_, err := f.audit().WriteComment(context.Background(), CommentInput{
		CardID: "c1", Body: "note", AuthorID: "u-1", AuthorName: "Bia",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
	assert.Equal(t, 2, f.gw.Calls(store.OpInsert, core.TableComments))
}

func TestAuditTrail_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	f.gw.DenyWrites(core.TableComments)

	_, err := f.audit().WriteComment(context.Background(), CommentInput{CardID: "c1", Body: "note", AuthorID: "u-1"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatPermission))
	assert.Contains(t, core.RemediationHint(err), core.TableComments)
	assert.True(t, errors.Is(err, core.ErrAccessDenied))
}

func TestAuditTrail_OtherErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	f.gw.Fail(store.OpInsert, core.TableComments, testutil.ErrTest)

	_, err := f.audit().WriteComment(context.Background(), CommentInput{CardID: "c1", Body: "note", AuthorID: "u-1"})
	assert.True(t, errors.Is(err, testutil.ErrTest))
	assert.Equal(t, 1, f.gw.Calls(store.OpInsert, core.TableComments))
}

func TestAuditTrail_RecordTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.audit().RecordTransition(ctx, HistoryInput{CardID: "c1", From: "novo"})
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
	_, err = f.audit().RecordTransition(ctx, HistoryInput{CardID: "c1", From: "novo", To: "doc"})
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))

	first, err := f.audit().RecordTransition(ctx, HistoryInput{CardID: "c1", From: "novo", To: "doc", MovedBy: "u"})
	require.NoError(t, err)
	_, err = f.audit().RecordTransition(ctx, HistoryInput{CardID: "c1", From: "doc", To: "ti", MovedBy: "u"})
	require.NoError(t, err)

	history, err := f.audit().History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, core.StageID("ti"), history[1].ToStageID)
}
