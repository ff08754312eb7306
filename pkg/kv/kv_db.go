package kv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/dgraph-io/badger/v4"
	"github.com/uber/h3-go/v4"
	"golang.org/x/exp/slog"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const (
	segmentCellResolution = 7
	floodCellResolution   = 9

	versionKey     = "meta:version"
	segmentPrefix  = "seg:"
	floodPrefix    = "flood:"
	unlocatedFlood = floodPrefix + "none"

	snapshotVersion = "1"
	batchSize       = 1000
)

// SnapshotStore persists the road segments and flood records the engine starts from.
// segments are grouped by the h3 cell of their first vertex, flood records by the h3 cell
// (res 9) of their first coordinate so nearby records can be read with a k-ring.
type SnapshotStore struct {
	db *badger.DB
}

func NewSnapshotStore(db *badger.DB) *SnapshotStore {
	return &SnapshotStore{db}
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %s: %w", path, err)
	}
	return NewSnapshotStore(db), nil
}

type batchData struct {
	key   string
	value []byte
}

// Save replaces whatever snapshot the store held.
func (k *SnapshotStore) Save(ctx context.Context, segments []datastructure.RoadSegment,
	records []datastructure.FloodRecord) error {
	slog.Info("saving road network snapshot", "segments", len(segments), "flood_records", len(records))

	if err := k.db.DropAll(); err != nil {
		return fmt.Errorf("clear snapshot db: %w", err)
	}

	segmentCells := make(map[string][]kvSegment)
	for i := range segments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		seg := segments[i]
		if len(seg.Geometry) == 0 {
			continue
		}
		key := segmentPrefix + cellOf(seg.Geometry[0], segmentCellResolution).String()
		segmentCells[key] = append(segmentCells[key], toKVSegment(seg))
	}

	floodCells := make(map[string][]kvFloodRecord)
	for i, rec := range records {
		key := unlocatedFlood
		if len(rec.Coordinates) > 0 {
			key = floodPrefix + cellOf(rec.Coordinates[0], floodCellResolution).String()
		}
		floodCells[key] = append(floodCells[key], toKVFloodRecord(i, rec))
	}

	batches := make([]batchData, 0, batchSize)
	flush := func() error {
		if len(batches) == 0 {
			return nil
		}
		if err := k.saveBatch(ctx, batches); err != nil {
			return err
		}
		batches = make([]batchData, 0, batchSize)
		return nil
	}

	for _, key := range sortedKeys(segmentCells) {
		val, err := encodeSegments(segmentCells[key])
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		batches = append(batches, batchData{key: key, value: val})
		if len(batches) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	for _, key := range sortedKeys(floodCells) {
		val, err := encodeFloodRecords(floodCells[key])
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		batches = append(batches, batchData{key: key, value: val})
		if len(batches) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	batches = append(batches, batchData{key: versionKey, value: []byte(snapshotVersion)})
	if err := flush(); err != nil {
		return err
	}

	slog.Info("saving road network snapshot done", "segment_cells", len(segmentCells),
		"flood_cells", len(floodCells))
	return nil
}

func (k *SnapshotStore) saveBatch(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := batch.Set([]byte(data.key), data.value); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		return fmt.Errorf("flush snapshot batch: %w", err)
	}
	return nil
}

// Load reads the full snapshot. segments come back sorted by ID, flood records in the order
// they were saved.
func (k *SnapshotStore) Load(ctx context.Context) ([]datastructure.RoadSegment, []datastructure.FloodRecord, error) {
	var (
		segments []datastructure.RoadSegment
		records  []kvFloodRecord
	)

	err := k.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(versionKey)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return err
		}

		err := iteratePrefix(ctx, txn, segmentPrefix, func(val []byte) error {
			sw, err := loadSegments(val)
			if err != nil {
				return err
			}
			for _, s := range sw {
				segments = append(segments, s.toRoadSegment())
			}
			return nil
		})
		if err != nil {
			return err
		}

		return iteratePrefix(ctx, txn, floodPrefix, func(val []byte) error {
			recs, err := loadFloodRecords(val)
			if err != nil {
				return err
			}
			records = append(records, recs...)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].ID < segments[j].ID
	})
	return segments, toFloodRecords(records), nil
}

func iteratePrefix(ctx context.Context, txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(val); err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
	}
	return nil
}

func (k *SnapshotStore) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// NearbyFloodRecords located flood records with at least one coordinate within radiusKm of p.
func (k *SnapshotStore) NearbyFloodRecords(p datastructure.Coordinate, radiusKm float64) ([]datastructure.FloodRecord, error) {
	if _, err := k.get([]byte(versionKey)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	radiusM := radiusKm * 1000
	found := make([]kvFloodRecord, 0)
	for _, cell := range kRingIndexesArea(p.Lat, p.Lon, radiusKm) {
		val, err := k.get([]byte(floodPrefix + cell.String()))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		recs, err := loadFloodRecords(val)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if withinRadius(rec, p, radiusM) {
				found = append(found, rec)
			}
		}
	}
	return toFloodRecords(found), nil
}

func withinRadius(rec kvFloodRecord, p datastructure.Coordinate, radiusM float64) bool {
	for i := range rec.Lat {
		if p.Distance(datastructure.NewCoordinate(rec.Lat[i], rec.Lon[i])) <= radiusM {
			return true
		}
	}
	return false
}

func toFloodRecords(recs []kvFloodRecord) []datastructure.FloodRecord {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Seq < recs[j].Seq
	})
	out := make([]datastructure.FloodRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toFloodRecord())
	}
	return out
}

func cellOf(c datastructure.Coordinate, resolution int) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lon), resolution)
}

// kRingIndexesArea res-9 grid disk around (lat, lon) covering a circle of searchRadiusKm.
// every ring widens the disk by at least 1.5 edge lengths, one ring per edge length plus one
// keeps the whole circle inside regardless of grid orientation.
func kRingIndexesArea(lat, lon, searchRadiusKm float64) []h3.Cell {
	origin := cellOf(datastructure.NewCoordinate(lat, lon), floodCellResolution)
	originArea := h3.CellAreaKm2(origin)
	edgeKm := math.Sqrt(2 * originArea / (3 * math.Sqrt(3)))

	radius := int(math.Ceil(searchRadiusKm/edgeKm)) + 1
	return h3.GridDisk(origin, radius)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (k *SnapshotStore) Close() error {
	return k.db.Close()
}
