package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeChangeWritesSiblingFile(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.ProposeChange("Note", "new content")
	require.True(t, resp.Success)
	assert.Equal(t, "_Proposals/Note.proposal", resp.ProposalPath)
}

func TestProposeChangeRejectsPathEscape(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.ProposeChange("../../etc/passwd", "x")
	assert.False(t, resp.Success)
}

func TestListProposalsReturnsEmptyWhenDirMissing(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.ListProposals()
	require.True(t, resp.Success)
	assert.Empty(t, resp.Proposals)
}

func TestListProposalsAndWithdrawRoundtrip(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)
	require.True(t, h.ProposeChange("Note", "v2").Success)

	list := h.ListProposals()
	require.True(t, list.Success)
	require.Len(t, list.Proposals, 1)
	assert.Equal(t, "Note", list.Proposals[0].PageName)

	withdraw := h.WithdrawProposal("Note")
	require.True(t, withdraw.Success)

	list = h.ListProposals()
	require.True(t, list.Success)
	assert.Empty(t, list.Proposals)
}

func TestWithdrawProposalFailsWhenMissing(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.WithdrawProposal("NoSuchPage")
	assert.False(t, resp.Success)
	assert.Equal(t, errProposalNotFound.Error(), resp.Error)
}
