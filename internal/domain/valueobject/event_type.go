package valueobject

import "github.com/ignatzorin/proposal-engine/internal/pkg/apperror"

type EventType string

const (
	EventTypeSent              EventType = "sent"
	EventTypeOpen              EventType = "open"
	EventTypeScroll            EventType = "scroll"
	EventTypeSectionView       EventType = "section_view"
	EventTypeDownloadPDF       EventType = "download_pdf"
	EventTypeAcceptClick       EventType = "accept_click"
	EventTypeSignatureStart    EventType = "signature_start"
	EventTypeSignatureComplete EventType = "signature_complete"
	EventTypeSignatureRejected EventType = "signature_rejected"
)

var eventTypes = []EventType{
	EventTypeSent,
	EventTypeOpen,
	EventTypeScroll,
	EventTypeSectionView,
	EventTypeDownloadPDF,
	EventTypeAcceptClick,
	EventTypeSignatureStart,
	EventTypeSignatureComplete,
	EventTypeSignatureRejected,
}

func (t EventType) IsValid() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EventTypes возвращает закрытый список типов событий.
func EventTypes() []EventType {
	out := make([]EventType, len(eventTypes))
	copy(out, eventTypes)
	return out
}

func NewEventType(eventType string) (EventType, error) {
	t := EventType(eventType)
	if !t.IsValid() {
		return "", apperror.Validation("type", "неизвестный тип события")
	}
	return t, nil
}

// Transition описывает условный переход статуса предложения, вызываемый событием.
type Transition struct {
	From []ProposalStatus
	To   ProposalStatus
}

// StatusTransition возвращает переход, который должно применить событие, если он есть.
// signature_complete переходов не вызывает: статус signed выставляет только создание подписи.
func (t EventType) StatusTransition() (Transition, bool) {
	switch t {
	case EventTypeOpen:
		return Transition{From: []ProposalStatus{ProposalStatusSent}, To: ProposalStatusViewed}, true
	case EventTypeSent:
		return Transition{From: []ProposalStatus{ProposalStatusDraft}, To: ProposalStatusSent}, true
	case EventTypeSignatureRejected:
		return Transition{From: []ProposalStatus{ProposalStatusSent, ProposalStatusViewed}, To: ProposalStatusRejected}, true
	}
	return Transition{}, false
}
