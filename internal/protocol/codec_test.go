package protocol

import (
	"errors"
	"math/rand"
	"testing"

	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/items"
	"ruinfall.game/internal/sim/units"
)

func TestCodec_ResponsesKeepTheirTypes(t *testing.T) {
	m := battle.New(10, 10, 0.5)
	if _, err := m.Units.Spawn(units.Squaddie, units.PlayerA, 1, 1, units.Bottom, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	in := Responses([]battle.Response{
		&battle.NewState{Map: m.Redact(units.PlayerA)},
		battle.NewBullet(1, 1, 4, 4, items.Rifle, true, 0, 10, 10),
		&battle.InvalidCommand{Reason: "insufficient moves"},
	})
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out ServerMessage
	if err := Decode(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != ServerResponses || len(out.Responses) != 3 {
		t.Fatalf("out=%+v", out)
	}
	st, ok := out.Responses[0].(*battle.NewState)
	if !ok || st.Map.Units.Count(units.PlayerA) != 1 || st.Map.Width() != 10 {
		t.Fatalf("state %#v", out.Responses[0])
	}
	if b, ok := out.Responses[1].(*battle.Bullet); !ok || b.TargetX != 4 {
		t.Fatalf("bullet %#v", out.Responses[1])
	}
	if ic, ok := out.Responses[2].(*battle.InvalidCommand); !ok || ic.Reason != "insufficient moves" {
		t.Fatalf("invalid %#v", out.Responses[2])
	}
}

func TestCodec_ClientCommand(t *testing.T) {
	b, err := Encode(Command(3, battle.Command{Kind: battle.CmdWalk, Facings: []units.Facing{units.Left, units.Top}}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out ClientMessage
	if err := Decode(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != ClientCommand || out.Unit != 3 || len(out.Command.Facings) != 2 || out.Command.Facings[1] != units.Top {
		t.Fatalf("out=%+v", out)
	}
}

func TestDecode_Garbage(t *testing.T) {
	var out ClientMessage
	if err := Decode([]byte{0xff, 0x00, 0x13}, &out); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("err=%v", err)
	}
}
