package engine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/errors"
	"github.com/sortbound/sortbound/pkg/poset"
	"github.com/sortbound/sortbound/pkg/search"
)

// layerFileName encodes (N, c) and a timestamp into a cache-friendly
// file name (spec §6 "file names encode (N, c) and a timestamp").
func layerFileName(dir string, n, c int, timestamp int64) string {
	return filepath.Join(dir, fmt.Sprintf("layer_N%d_c%d_%d.bin", n, c, timestamp))
}

// WriteLayer persists one layer as { Meta header; PosetRecord[] body }
// with no framing or checksum (spec §6 "Persisted layer file").
func WriteLayer(path string, layer *search.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLayerIO, err, "create layer file %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeMeta(w, layer.Meta); err != nil {
		return errors.Wrap(errors.ErrCodeLayerIO, err, "write layer meta %s", path)
	}
	for i := 0; i < layer.Len(); i++ {
		if err := writeRecord(w, layer.Record(i), layer.Reduced(i)); err != nil {
			return errors.Wrap(errors.ErrCodeLayerIO, err, "write record %d in %s", i, path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeLayerIO, err, "flush layer file %s", path)
	}
	return nil
}

// ReadLayer loads a previously persisted layer. A short read or
// truncated header is treated as "no reusable layer" (spec §7): the
// returned error always has ErrCodeLayerIO so callers can fall back to
// recomputing rather than treating it as fatal.
func ReadLayer(path string, totalC int) (*search.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayerIO, err, "open layer file %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	meta, err := readMeta(r, totalC)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayerIO, err, "read layer meta %s", path)
	}

	layer := search.NewLayer(int(meta.N), totalC, int(meta.Level))
	layer.Meta = meta
	total := meta.NumYes + meta.NumUnf
	for i := uint64(0); i < total; i++ {
		rec, reduced, err := readRecord(r, int(meta.N))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLayerIO, err, "read record %d from %s", i, path)
		}
		closure := reduced.TransitiveClosure()
		layer.Add(rec, reduced, closure, poset.Info{N: int(meta.N)})
	}
	return layer, nil
}

func writeMeta(w io.Writer, m search.Meta) error {
	if err := binary.Write(w, binary.LittleEndian, m.N); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.C); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Level); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.CompleteAbove); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.MaxLinExt))); err != nil {
		return err
	}
	for _, v := range m.MaxLinExt {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, m.NumYes); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.NumUnf)
}

func readMeta(r io.Reader, totalC int) (search.Meta, error) {
	var m search.Meta
	if err := binary.Read(r, binary.LittleEndian, &m.N); err != nil {
		return m, err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.C); err != nil {
		return m, err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Level); err != nil {
		return m, err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.CompleteAbove); err != nil {
		return m, err
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return m, err
	}
	m.MaxLinExt = make([]uint64, count)
	for i := range m.MaxLinExt {
		if err := binary.Read(r, binary.LittleEndian, &m.MaxLinExt[i]); err != nil {
			return m, err
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &m.NumYes); err != nil {
		return m, err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.NumUnf); err != nil {
		return m, err
	}
	_ = totalC
	return m, nil
}

// writeRecord encodes one PosetRecord byte-for-byte: hash64, flags
// (status embedded), then the reduced graph's N rows (spec §9 "struct-
// of-bytes and accessor functions that do shift-and-mask").
func writeRecord(w io.Writer, rec *poset.Record, reduced *bitgraph.Graph) error {
	if err := binary.Write(w, binary.LittleEndian, rec.Hash64()); err != nil {
		return err
	}
	flags := statusByte(rec)
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}
	n := reduced.N()
	if err := binary.Write(w, binary.LittleEndian, uint8(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := binary.Write(w, binary.LittleEndian, reduced.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

func readRecord(r io.Reader, expectN int) (*poset.Record, *bitgraph.Graph, error) {
	rec := &poset.Record{}
	var hash uint64
	if err := binary.Read(r, binary.LittleEndian, &hash); err != nil {
		return nil, nil, err
	}
	rec.SetHash64(hash)

	var flags uint8
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, nil, err
	}
	applyStatusByte(rec, flags)

	var n uint8
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, err
	}
	if int(n) != expectN {
		return nil, nil, fmt.Errorf("record N=%d does not match layer N=%d", n, expectN)
	}

	g := bitgraph.New(int(n))
	for i := 0; i < int(n); i++ {
		var row bitgraph.Row
		if err := binary.Read(r, binary.LittleEndian, &row); err != nil {
			return nil, nil, err
		}
		g.SetRow(i, row)
	}
	return rec, g, nil
}

const (
	recordFlagSelfDual    = 1 << 0
	recordFlagUniqueGraph = 1 << 1
	recordStatusShift      = 2
)

func statusByte(rec *poset.Record) uint8 {
	var b uint8
	if rec.SelfDual() {
		b |= recordFlagSelfDual
	}
	if rec.UniqueGraph() {
		b |= recordFlagUniqueGraph
	}
	b |= uint8(rec.Status()) << recordStatusShift
	return b
}

func applyStatusByte(rec *poset.Record, b uint8) {
	rec.SetSelfDual(b&recordFlagSelfDual != 0)
	rec.SetUniqueGraph(b&recordFlagUniqueGraph != 0)
	rec.SetStatus(poset.Status(b >> recordStatusShift))
}
