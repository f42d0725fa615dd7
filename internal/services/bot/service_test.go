package bot

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.service = NewService(s.random, testutil.NopLogger())
}

func (s *ServiceSuite) TestNewMemberIsReadyBot() {
	s.random.QueueString("abcd1234")
	s.random.QueueIntn(2, 7)

	member := s.service.NewMember(nil, model.DifficultyHard)

	s.Equal(model.PlayerID("bot-abcd1234"), member.ID)
	s.Equal(Names[2], member.Name)
	s.Equal(7, member.Avatar)
	s.True(member.IsBot)
	s.True(member.Ready)
	s.Equal(model.DifficultyHard, member.Difficulty)
}

func (s *ServiceSuite) TestNewMemberAvoidsTakenNames() {
	room := &model.Room{Players: []model.Member{{ID: "bot-1", Name: Names[0], IsBot: true}}}
	s.random.QueueIntn(0)

	member := s.service.NewMember(room, model.DifficultyMedium)

	s.Equal(Names[1], member.Name)
}

func (s *ServiceSuite) TestNewMemberRetriesIDCollision() {
	room := &model.Room{Players: []model.Member{{ID: "bot-aaaaaaaa", IsBot: true}}}
	s.random.QueueString("aaaaaaaa", "bbbbbbbb")

	member := s.service.NewMember(room, model.DifficultyMedium)

	s.Equal(model.PlayerID("bot-bbbbbbbb"), member.ID)
}

func (s *ServiceSuite) TestIsBotID() {
	s.True(IsBotID("bot-abc"))
	s.False(IsBotID("bot-"))
	s.False(IsBotID("robot"))
}
