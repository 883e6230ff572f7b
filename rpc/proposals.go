package rpc

import (
	"os"
	"path/filepath"
	"strings"
)

// ProposeChangeResponse is ProposeChange's response shape.
type ProposeChangeResponse struct {
	ProposalPath string `json:"proposal_path"`
	envelope
}

// ProposeChange writes a proposed replacement for pageName as a sibling
// ".proposal" file under ProposalsDir, without touching the live page.
// Pure file shuffling, per §6's Non-goal framing for this subsystem.
func (h *Handlers) ProposeChange(pageName, content string) ProposeChangeResponse {
	if err := os.MkdirAll(filepath.Join(h.Root, h.ProposalsDir), 0755); err != nil {
		return ProposeChangeResponse{envelope: failed(err)}
	}
	relProposal := filepath.Join(h.ProposalsDir, pageName+".proposal")
	path, err := resolveSafe(h.Root, relProposal)
	if err != nil {
		return ProposeChangeResponse{envelope: failed(err)}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return ProposeChangeResponse{envelope: failed(err)}
	}
	return ProposeChangeResponse{ProposalPath: filepath.ToSlash(relProposal), envelope: ok()}
}

// Proposal is one entry of ListProposals' results.
type Proposal struct {
	PageName string `json:"page_name"`
	Path     string `json:"path"`
}

// ListProposalsResponse is ListProposals' response shape.
type ListProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
	envelope
}

// ListProposals enumerates every pending ".proposal" file.
func (h *Handlers) ListProposals() ListProposalsResponse {
	dir := filepath.Join(h.Root, h.ProposalsDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return ListProposalsResponse{Proposals: []Proposal{}, envelope: ok()}
	}
	if err != nil {
		return ListProposalsResponse{envelope: failed(err)}
	}
	proposals := make([]Proposal, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".proposal") {
			continue
		}
		pageName := strings.TrimSuffix(entry.Name(), ".proposal")
		proposals = append(proposals, Proposal{
			PageName: pageName,
			Path:     filepath.ToSlash(filepath.Join(h.ProposalsDir, entry.Name())),
		})
	}
	return ListProposalsResponse{Proposals: proposals, envelope: ok()}
}

// WithdrawProposalResponse is WithdrawProposal's response shape.
type WithdrawProposalResponse struct {
	envelope
}

// WithdrawProposal deletes a pending proposal by page name.
func (h *Handlers) WithdrawProposal(pageName string) WithdrawProposalResponse {
	relProposal := filepath.Join(h.ProposalsDir, pageName+".proposal")
	path, err := resolveSafe(h.Root, relProposal)
	if err != nil {
		return WithdrawProposalResponse{envelope: failed(err)}
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return WithdrawProposalResponse{envelope: failed(errProposalNotFound)}
		}
		return WithdrawProposalResponse{envelope: failed(err)}
	}
	return WithdrawProposalResponse{envelope: ok()}
}
