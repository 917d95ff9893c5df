package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// stateDigest hashes everything that can differ between two runs of the same
// episode: the board, every agent and every belief store.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, uint64(w.grid.Size()))
	h.Write([]byte{boolByte(w.over)})

	w.digestGrid(h)
	w.digestAgents(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestGrid(h hashWriter) {
	size := w.grid.Size()
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			p := geom.P(x, y)
			var kind, flag byte
			switch e := w.grid.Occupant(p).(type) {
			case *grid.Gold:
				kind, flag = byte(e.Kind()), boolByte(e.Glowing)
			case *grid.Agent:
				kind = byte(e.Kind())
				h.Write([]byte(e.ID))
			case grid.Entity:
				kind = byte(e.Kind())
			}
			h.Write([]byte{kind, flag, boolByte(w.grid.Visible(p))})
		}
	}
}

func (w *World) digestAgents(h hashWriter, tmp *[8]byte) {
	for _, a := range w.agents {
		digestWriteU64(h, tmp, uint64(len(a.ID)))
		h.Write([]byte(a.ID))
		digestWritePos(h, tmp, a.Pos)
		h.Write([]byte{byte(a.Dir), boolByte(a.Alive), boolByte(a.VoteAdmin), byte(a.VoteState), boolByte(a.ShininessSeen)})
		digestWriteI64(h, tmp, int64(a.Score))
		digestWriteI64(h, tmp, int64(a.ArrowsLeft))
		digestWriteOptPos(h, tmp, a.PendingTarget)
		digestWriteOptPos(h, tmp, a.ArrowTarget)
		snap := a.Belief.Snapshot()
		digestWriteU64(h, tmp, uint64(len(snap)))
		h.Write(snap)
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWritePos(h hashWriter, tmp *[8]byte, p geom.Pos) {
	digestWriteI64(h, tmp, int64(p.X))
	digestWriteI64(h, tmp, int64(p.Y))
}

func digestWriteOptPos(h hashWriter, tmp *[8]byte, p *geom.Pos) {
	if p == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	digestWritePos(h, tmp, *p)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
