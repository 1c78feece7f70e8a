package redis

import "testing"

func TestLookupCommandCaseInsensitive(t *testing.T) {
	for _, name := range []string{"get", "Get", "GET", "gEt"} {
		if id := LookupCommand(name); id != CmdGET {
			t.Errorf("LookupCommand(%q) = %v, want CmdGET", name, id)
		}
	}
}

func TestLookupCommandUnknown(t *testing.T) {
	if id := LookupCommand("NOTACOMMAND"); id != NOOP {
		t.Errorf("got %v, want NOOP", id)
	}
}

func TestCheckArgc(t *testing.T) {
	cases := []struct {
		arity int
		n     int
		want  bool
	}{
		{ArgcAny, 0, true},
		{ArgcAny, 50, true},
		{0, 0, true},
		{0, 1, false},
		{2, 2, true},
		{2, 1, false},
		{-1, 1, true},
		{-1, 5, true},
		{-1, 0, false},
		{-2, 1, false},
		{-2, 2, true},
	}
	for _, c := range cases {
		if got := checkArgc(c.arity, c.n); got != c.want {
			t.Errorf("checkArgc(%d, %d) = %v, want %v", c.arity, c.n, got, c.want)
		}
	}
}

func TestCommandTableConsistency(t *testing.T) {
	for id := CommandID(1); id < numCommands; id++ {
		info := commandTable[id]
		if info.ID != id {
			t.Errorf("commandTable[%d].ID = %v, want %v", id, info.ID, id)
		}
		if info.Name == "" {
			t.Errorf("commandTable[%d] has an empty name", id)
		}
		if LookupCommand(info.Name) != id {
			t.Errorf("LookupCommand(%q) did not round-trip to %v", info.Name, id)
		}
	}
}

func TestPingAcceptsOptionalArgument(t *testing.T) {
	if !checkArgc(CmdPING.Info().Arity, 0) {
		t.Error("PING should accept zero arguments")
	}
	if !checkArgc(CmdPING.Info().Arity, 1) {
		t.Error("PING should accept one argument (an echo payload)")
	}
}
