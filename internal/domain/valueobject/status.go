package valueobject

import "github.com/ignatzorin/proposal-engine/internal/pkg/apperror"

type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusViewed   ProposalStatus = "viewed"
	ProposalStatusSigned   ProposalStatus = "signed"
	ProposalStatusRejected ProposalStatus = "rejected"
)

func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSent, ProposalStatusViewed, ProposalStatusSigned, ProposalStatusRejected:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusSigned || s == ProposalStatusRejected
}

func (s ProposalStatus) CanTransitionTo(newStatus ProposalStatus) bool {
	transitions := map[ProposalStatus][]ProposalStatus{
		ProposalStatusDraft:    {ProposalStatusSent},
		ProposalStatusSent:     {ProposalStatusViewed, ProposalStatusSigned, ProposalStatusRejected},
		ProposalStatusViewed:   {ProposalStatusSigned, ProposalStatusRejected},
		ProposalStatusSigned:   {},
		ProposalStatusRejected: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewProposalStatus(status string) (ProposalStatus, error) {
	s := ProposalStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("status", "некорректный статус предложения")
	}
	return s, nil
}

type VersionStatus string

const (
	VersionStatusPublished VersionStatus = "published"
	VersionStatusSigned    VersionStatus = "signed"
)

func NewVersionStatus(status string) (VersionStatus, error) {
	s := VersionStatus(status)
	switch s {
	case VersionStatusPublished, VersionStatusSigned:
		return s, nil
	}
	return "", apperror.Validation("status", "некорректный статус версии")
}
