package directory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type DirectorySuite struct {
	suite.Suite
	dir *Directory
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.dir = New(testutil.NopLogger())
}

func (s *DirectorySuite) TestAddRegistersUnidentified() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Add(conn)

	s.Equal(1, s.dir.Count())
	s.Equal(0, s.dir.PlayerCount())
	_, ok := s.dir.Lookup(conn)
	s.False(ok)
}

func (s *DirectorySuite) TestBindAndResolve() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Add(conn)

	orphaned := s.dir.Bind(conn, "alice", "conn-1", "Alice")
	s.Nil(orphaned)

	resolved, ok := s.dir.Resolve("alice")
	s.Require().True(ok)
	s.Equal(conn, resolved)

	binding, ok := s.dir.Lookup(conn)
	s.Require().True(ok)
	s.Equal(model.PlayerID("alice"), binding.PlayerID)
	s.Equal("conn-1", binding.ConnectionID)
}

func (s *DirectorySuite) TestBindSamePlayerOrphansOldConnection() {
	oldConn := testutil.NewFakeConn("old")
	newConn := testutil.NewFakeConn("new")
	s.dir.Add(oldConn)
	s.dir.Add(newConn)
	s.dir.Bind(oldConn, "alice", "conn-1", "Alice")

	orphaned := s.dir.Bind(newConn, "alice", "conn-2", "Alice")
	s.Equal(oldConn, orphaned)

	resolved, _ := s.dir.Resolve("alice")
	s.Equal(newConn, resolved)
	_, ok := s.dir.Lookup(oldConn)
	s.False(ok)
	s.False(oldConn.Closed())
	s.Equal(2, s.dir.Count())
}

func (s *DirectorySuite) TestRebindToDifferentPlayerReleasesOldID() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Bind(conn, "alice", "conn-1", "Alice")
	s.dir.Bind(conn, "bob", "conn-2", "Bob")

	_, ok := s.dir.Resolve("alice")
	s.False(ok)
	s.Equal(1, s.dir.PlayerCount())
}

func (s *DirectorySuite) TestUnbindRemovesBothDirections() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Bind(conn, "alice", "conn-1", "Alice")

	binding, ok := s.dir.Unbind(conn)
	s.Require().True(ok)
	s.Equal(model.PlayerID("alice"), binding.PlayerID)

	_, ok = s.dir.Resolve("alice")
	s.False(ok)
	s.Equal(0, s.dir.Count())
}

func (s *DirectorySuite) TestUnbindOrphanKeepsNewBinding() {
	oldConn := testutil.NewFakeConn("old")
	newConn := testutil.NewFakeConn("new")
	s.dir.Bind(oldConn, "alice", "conn-1", "Alice")
	s.dir.Bind(newConn, "alice", "conn-2", "Alice")

	_, ok := s.dir.Unbind(oldConn)
	s.False(ok)

	resolved, ok := s.dir.Resolve("alice")
	s.Require().True(ok)
	s.Equal(newConn, resolved)
}

func (s *DirectorySuite) TestProbeAndMarkAlive() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Add(conn)

	s.True(s.dir.Probe(conn))
	s.False(s.dir.Probe(conn))

	s.dir.MarkAlive(conn)
	s.True(s.dir.Probe(conn))
}

func (s *DirectorySuite) TestSendToSwallowsFailures() {
	conn := testutil.NewFakeConn("c1")
	s.dir.Bind(conn, "alice", "conn-1", "Alice")
	_ = conn.Close()

	s.True(s.dir.SendTo("alice", []byte(`{"type":"chat"}`)))
	s.False(s.dir.SendTo("bob", []byte(`{"type":"chat"}`)))
}

func (s *DirectorySuite) TestBroadcastReachesUnidentified() {
	a := testutil.NewFakeConn("a")
	b := testutil.NewFakeConn("b")
	s.dir.Add(a)
	s.dir.Bind(b, "bob", "conn-1", "Bob")

	s.dir.Broadcast([]byte(`{"type":"rooms_list"}`))

	s.Equal([]string{"rooms_list"}, a.Types())
	s.Equal([]string{"rooms_list"}, b.Types())
}
