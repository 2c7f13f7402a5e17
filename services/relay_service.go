package services

import (
	"github.com/RuuizOr/CiberseguridadEquipo2/contract"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/runtime"
)

// RelayService is the application-facing facade over the Coordinator. The
// transport layer depends on contract.IRelayService, never on runtime
// internals.
type RelayService struct {
	coordinator *runtime.Coordinator
}

var _ contract.IRelayService = (*RelayService)(nil)

func NewRelayService(coordinator *runtime.Coordinator) *RelayService {
	return &RelayService{coordinator: coordinator}
}

func (s *RelayService) Connect(id domain.ConnID, sink contract.EventSink) {
	s.coordinator.Connect(id, sink)
}

func (s *RelayService) RegisterIdentity(id domain.ConnID, displayName, publicKey string) {
	s.coordinator.RegisterIdentity(id, displayName, publicKey)
}

func (s *RelayService) ChooseGroup(id domain.ConnID, instruction string) {
	s.coordinator.ChooseGroup(id, instruction)
}

func (s *RelayService) HandleText(id domain.ConnID, text string) {
	s.coordinator.HandleText(id, text)
}

func (s *RelayService) Recipients(id domain.ConnID) []string {
	return s.coordinator.Recipients(id)
}

func (s *RelayService) RelayEncrypted(id domain.ConnID, payload map[string]string) {
	s.coordinator.RelayEncrypted(id, payload)
}

func (s *RelayService) Disconnect(id domain.ConnID) {
	s.coordinator.Disconnect(id)
}
