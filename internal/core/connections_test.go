package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type nopSignal struct{}

func (nopSignal) TrySend(Frame) error { return nil }
func (nopSignal) Close()              {}

func TestConnectionRegistry_RegisterLookup(t *testing.T) {
	req := require.New(t)
	reg := NewConnectionRegistry()

	req.NoError(reg.Register("c1", "v1", "Bob", nopSignal{}))

	info, err := reg.Lookup("c1")
	req.NoError(err)
	req.Equal(ConnectionID("c1"), info.ID)
	req.EqualValues("v1", info.Identity)
	req.EqualValues("Bob", info.DisplayName)
	req.Empty(info.StreamID)

	_, err = reg.Lookup("c2")
	req.ErrorIs(err, ErrNotFound)
}

func TestConnectionRegistry_DuplicateRegistration_FirstWins(t *testing.T) {
	req := require.New(t)
	reg := NewConnectionRegistry()

	req.NoError(reg.Register("c1", "v1", "Bob", nopSignal{}))
	req.ErrorIs(reg.Register("c1", "intruder", "Eve", nopSignal{}), ErrDuplicateConnection)

	info, err := reg.Lookup("c1")
	req.NoError(err)
	req.EqualValues("v1", info.Identity)
	req.Equal(1, reg.Count())
}

func TestConnectionRegistry_Unregister_IsIdempotent(t *testing.T) {
	req := require.New(t)
	reg := NewConnectionRegistry()
	req.NoError(reg.Register("c1", "v1", "Bob", nopSignal{}))

	prev, ok := reg.Associate("c1", "42")
	req.True(ok)
	req.Empty(prev)

	assoc := reg.Unregister("c1")
	req.Equal([]Association{{StreamID: "42", Identity: "v1"}}, assoc)
	req.Empty(reg.Unregister("c1"))
	req.Equal(0, reg.Count())
}

func TestConnectionRegistry_AssociateReplacesAndDissociateIsScoped(t *testing.T) {
	req := require.New(t)
	reg := NewConnectionRegistry()
	req.NoError(reg.Register("c1", "v1", "Bob", nopSignal{}))

	reg.Associate("c1", "a")
	prev, _ := reg.Associate("c1", "b")
	req.EqualValues("a", prev)

	reg.Dissociate("c1", "a")
	info, _ := reg.Lookup("c1")
	req.EqualValues("b", info.StreamID)

	reg.Dissociate("c1", "b")
	info, _ = reg.Lookup("c1")
	req.Empty(info.StreamID)

	_, ok := reg.Associate("missing", "a")
	req.False(ok)
}

func TestConnectionRegistry_Rename(t *testing.T) {
	req := require.New(t)
	reg := NewConnectionRegistry()
	req.NoError(reg.Register("c1", "v1", "Bob", nopSignal{}))

	req.True(reg.Rename("c1", "Robert"))
	info, _ := reg.Lookup("c1")
	req.EqualValues("Robert", info.DisplayName)
	req.False(reg.Rename("c2", "x"))
}
